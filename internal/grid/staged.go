package grid

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sourcegraph/conc/pool"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

type saveResult struct {
	Key    string
	Cells  map[string]string
	DataID models.ID
	Err    error
}

type rowsSavedMsg struct {
	TableID models.ID
	Results []saveResult
}

// AddRow appends a staged row with every header column empty
func (c *Controller) AddRow() bool {
	if c.tableID.IsZero() {
		c.notify.Error("No table selected")
		return false
	}
	c.staged = append(c.staged, models.NewStagedRow(c.headers))
	return true
}

// SetStagedCell writes a value into a staged row
func (c *Controller) SetStagedCell(index, col int, value string) bool {
	if index < 0 || index >= len(c.staged) || col < 0 || col >= len(c.headers) {
		return false
	}
	column := c.headers[col]
	if c.IsImmutable(column) {
		return false
	}
	c.staged[index].Cells[column] = value
	return true
}

// CanEditStaged reports whether a staged cell accepts input
func (c *Controller) CanEditStaged(index, col int) bool {
	if index < 0 || index >= len(c.staged) || col < 0 || col >= len(c.headers) {
		return false
	}
	return !c.IsImmutable(c.headers[col])
}

// requiredColumns are the header columns a staged row must fill in
func (c *Controller) requiredColumns() []string {
	cols := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		if !c.IsImmutable(h) {
			cols = append(cols, h)
		}
	}
	return cols
}

// SaveStaged submits every staged row as an independent create.
// Validation failures issue no calls at all.
func (c *Controller) SaveStaged() tea.Cmd {
	if c.tableID.IsZero() {
		c.notify.Error("No table selected")
		return nil
	}
	if len(c.staged) == 0 {
		c.notify.Error("No new rows to save")
		return nil
	}
	if c.saving {
		return nil
	}

	required := c.requiredColumns()
	for _, row := range c.staged {
		if _, blank := row.BlankColumn(required); blank {
			c.notify.Error("Row is blank")
			return nil
		}
	}

	batch := make([]saveResult, len(c.staged))
	for i, row := range c.staged {
		cells := make(map[string]string, len(required))
		for _, h := range required {
			cells[h] = row.Cells[h]
		}
		batch[i] = saveResult{Key: row.Key, Cells: cells}
	}

	c.saving = true

	tableID := c.tableID
	gw := c.gw
	workers := c.opts.SaveConcurrency
	return func() tea.Msg {
		p := pool.New().WithMaxGoroutines(workers)
		for i := range batch {
			p.Go(func() {
				id, err := gw.CreateRow(context.Background(), tableID, batch[i].Cells)
				batch[i].DataID = id
				batch[i].Err = err
			})
		}
		p.Wait()
		return rowsSavedMsg{TableID: tableID, Results: batch}
	}
}

func (c *Controller) handleRowsSaved(msg rowsSavedMsg) tea.Cmd {
	current := msg.TableID == c.tableID
	if current {
		c.saving = false
	}

	failed := 0
	for i, res := range msg.Results {
		if res.Err != nil {
			failed++
			c.logger.Error("failed to save new row",
				"table_id", msg.TableID, "row", i+1, "error", res.Err)
			c.notify.Error(fmt.Sprintf("Failed to save new row %d. Please try again.", i+1))
			continue
		}
		// Without an id the row cannot be addressed; the refresh brings it in
		if current && !res.DataID.IsZero() && c.rowIndex(res.DataID) < 0 {
			c.rows = append(c.rows, models.NormalizeRow(res.DataID, toAny(res.Cells), c.headers))
		}
	}

	if current {
		// Rows staged while the batch was in flight stay staged
		kept := c.staged[:0]
		for _, row := range c.staged {
			if !inBatch(msg.Results, row.Key) {
				kept = append(kept, row)
			}
		}
		c.staged = kept

		if c.menu != nil && c.menu.Staged {
			c.menu = nil
		}
	}

	if failed == 0 {
		c.notify.Success("All new rows saved successfully")
	}

	if !current {
		return nil
	}
	c.refreshAfterSave = false
	return c.fetch()
}

func inBatch(results []saveResult, key string) bool {
	for _, r := range results {
		if r.Key == key {
			return true
		}
	}
	return false
}

func toAny(cells map[string]string) map[string]any {
	out := make(map[string]any, len(cells))
	for k, v := range cells {
		out[k] = v
	}
	return out
}
