package grid

import (
	"context"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

type dataLoadedMsg struct {
	TableID models.ID
	Seq     uint64
	Data    *models.TableData
	Err     error
}

// Load switches the grid to a table. Everything belonging to the previous
// table is discarded before the fetch is issued. An empty id clears the grid.
func (c *Controller) Load(tableID models.ID) tea.Cmd {
	c.tableID = tableID
	c.headers = nil
	c.rows = nil
	c.staged = nil
	c.edit = nil
	c.menu = nil
	c.statuses = make(map[models.CellKey]models.CellStatus)
	c.loadErr = nil
	c.saving = false
	c.refreshAfterSave = false

	// Invalidate whatever fetch is still in flight
	c.seq++

	if tableID.IsZero() {
		c.loading = false
		return nil
	}

	c.loading = true
	return c.fetch()
}

// Refresh refetches the current table, keeping staged rows.
// While a staged-row batch is saving the refresh is deferred until it ends.
func (c *Controller) Refresh() tea.Cmd {
	if c.tableID.IsZero() {
		return nil
	}
	if c.saving {
		c.refreshAfterSave = true
		return nil
	}
	return c.fetch()
}

func (c *Controller) fetch() tea.Cmd {
	c.seq++
	seq := c.seq
	tableID := c.tableID
	gw := c.gw

	return func() tea.Msg {
		data, err := gw.FetchTableData(context.Background(), tableID)
		return dataLoadedMsg{TableID: tableID, Seq: seq, Data: data, Err: err}
	}
}

func (c *Controller) handleDataLoaded(msg dataLoadedMsg) tea.Cmd {
	if msg.TableID != c.tableID || msg.Seq != c.seq {
		c.logger.Debug("dropping stale table snapshot",
			"table_id", msg.TableID, "seq", msg.Seq, "latest", c.seq)
		return nil
	}

	c.loading = false

	if msg.Err != nil {
		c.logger.Error("failed to fetch table data", "table_id", msg.TableID, "error", msg.Err)
		c.headers = nil
		c.rows = nil
		c.edit = nil
		c.menu = nil
		c.loadErr = msg.Err
		c.notify.Error("Failed to fetch data")
		return nil
	}

	c.loadErr = nil
	c.apply(msg.Data)
	return nil
}

// apply replaces headers and rows with a snapshot. Cells with a local value
// not yet confirmed by the gateway (in edit or pending) keep that value.
func (c *Controller) apply(data *models.TableData) {
	if data == nil {
		data = &models.TableData{}
	}

	rows := data.Rows
	if rows == nil {
		rows = []models.Row{}
	}

	local := make(map[models.CellKey]string)
	for key, status := range c.statuses {
		if status == models.CellPending || status == models.CellDirty {
			if idx := c.rowIndex(key.DataID); idx >= 0 {
				local[key] = c.rows[idx].Cells[key.Column]
			}
		}
	}

	statuses := make(map[models.CellKey]models.CellStatus)
	for i := range rows {
		for _, h := range data.Headers {
			key := models.CellKey{DataID: rows[i].DataID, Column: h}
			if v, ok := local[key]; ok {
				rows[i].Cells[h] = v
				statuses[key] = c.statuses[key]
			}
		}
	}

	c.headers = data.Headers
	c.rows = rows
	c.statuses = statuses

	if c.edit != nil {
		idx := c.rowIndex(c.edit.DataID)
		switch {
		case idx < 0 || !slices.Contains(c.headers, c.edit.Column):
			c.edit = nil
		case c.statuses[models.CellKey{DataID: c.edit.DataID, Column: c.edit.Column}] != models.CellDirty:
			c.edit.Original = c.rows[idx].Cells[c.edit.Column]
		}
	}

	if c.menu != nil && !c.menu.Staged {
		idx := c.rowIndex(c.menu.DataID)
		if idx < 0 {
			c.menu = nil
		} else {
			c.menu.Index = idx
		}
	}

	// Staged rows follow the new header
	for i := range c.staged {
		for _, h := range c.headers {
			if _, ok := c.staged[i].Cells[h]; !ok {
				c.staged[i].Cells[h] = ""
			}
		}
	}
}
