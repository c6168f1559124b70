package grid

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

type cellSavedMsg struct {
	TableID models.ID
	Key     models.CellKey
	Value   string
	Err     error
}

// CanEdit reports whether a persisted cell may enter edit mode
func (c *Controller) CanEdit(row, col int) bool {
	if row < 0 || row >= len(c.rows) || col < 0 || col >= len(c.headers) {
		return false
	}
	return !c.IsImmutable(c.headers[col])
}

// BeginEdit puts a persisted cell in edit mode. A cell already in edit
// mode is committed first.
func (c *Controller) BeginEdit(row, col int) tea.Cmd {
	if !c.CanEdit(row, col) {
		return nil
	}

	target := c.rows[row]
	column := c.headers[col]

	var cmd tea.Cmd
	if c.edit != nil {
		if c.edit.DataID == target.DataID && c.edit.Column == column {
			return nil
		}
		cmd = c.CommitEdit()
	}

	c.edit = &editState{
		DataID:     target.DataID,
		Column:     column,
		Original:   target.Cells[column],
		PrevStatus: c.Status(target.DataID, column),
	}
	return cmd
}

// EditValue returns the current value of the cell in edit mode
func (c *Controller) EditValue() string {
	if c.edit == nil {
		return ""
	}
	idx := c.rowIndex(c.edit.DataID)
	if idx < 0 {
		return ""
	}
	return c.rows[idx].Cells[c.edit.Column]
}

// EditInput writes the editor value into the row optimistically
func (c *Controller) EditInput(value string) {
	if c.edit == nil {
		return
	}
	idx := c.rowIndex(c.edit.DataID)
	if idx < 0 {
		c.edit = nil
		return
	}

	c.rows[idx].Cells[c.edit.Column] = value

	key := models.CellKey{DataID: c.edit.DataID, Column: c.edit.Column}
	if value == c.edit.Original {
		c.setStatus(key, c.edit.PrevStatus)
	} else {
		c.setStatus(key, models.CellDirty)
	}
}

// CommitEdit leaves edit mode and persists the cell if its value changed
func (c *Controller) CommitEdit() tea.Cmd {
	e := c.edit
	if e == nil {
		return nil
	}
	c.edit = nil

	idx := c.rowIndex(e.DataID)
	if idx < 0 {
		return nil
	}

	key := models.CellKey{DataID: e.DataID, Column: e.Column}
	value := c.rows[idx].Cells[e.Column]
	if value == e.Original {
		c.setStatus(key, e.PrevStatus)
		return nil
	}

	c.setStatus(key, models.CellPending)

	tableID := c.tableID
	gw := c.gw
	return func() tea.Msg {
		err := gw.UpdateRow(context.Background(), key.DataID, map[string]string{key.Column: value})
		return cellSavedMsg{TableID: tableID, Key: key, Value: value, Err: err}
	}
}

// CancelEdit leaves edit mode restoring the value the cell had before editing
func (c *Controller) CancelEdit() {
	e := c.edit
	if e == nil {
		return
	}
	c.edit = nil

	if idx := c.rowIndex(e.DataID); idx >= 0 {
		c.rows[idx].Cells[e.Column] = e.Original
	}
	c.setStatus(models.CellKey{DataID: e.DataID, Column: e.Column}, e.PrevStatus)
}

func (c *Controller) handleCellSaved(msg cellSavedMsg) tea.Cmd {
	current := msg.TableID == c.tableID

	// A newer edit of the same cell owns its status
	owned := false
	if current {
		if idx := c.rowIndex(msg.Key.DataID); idx >= 0 {
			owned = c.rows[idx].Cells[msg.Key.Column] == msg.Value &&
				c.statuses[msg.Key] == models.CellPending
		}
	}

	if msg.Err != nil {
		c.logger.Error("failed to update cell",
			"table_id", msg.TableID, "data_id", msg.Key.DataID, "column", msg.Key.Column, "error", msg.Err)
		if owned {
			c.setStatus(msg.Key, models.CellFailed)
		}
		c.notify.Error("Failed to update cell")
		return nil
	}

	if owned {
		c.setStatus(msg.Key, models.CellClean)
	}
	c.notify.Success("Updated successfully")

	if !current {
		return nil
	}
	return c.Refresh()
}
