package grid

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

type rowDeletedMsg struct {
	TableID models.ID
	DataID  models.ID
	Err     error
}

// OpenMenu records the row a context menu was opened on, at screen position x,y
func (c *Controller) OpenMenu(index int, staged bool, x, y int) bool {
	target := MenuTarget{Staged: staged, Index: index, X: x, Y: y}
	if staged {
		if index < 0 || index >= len(c.staged) {
			return false
		}
		target.Key = c.staged[index].Key
	} else {
		if index < 0 || index >= len(c.rows) {
			return false
		}
		target.DataID = c.rows[index].DataID
	}
	c.menu = &target
	return true
}

// CloseMenu dismisses the context menu without acting
func (c *Controller) CloseMenu() {
	c.menu = nil
}

// DeleteMenuTarget deletes the row the context menu points at and closes the menu.
// Staged rows are removed locally; persisted rows go through the gateway.
func (c *Controller) DeleteMenuTarget() tea.Cmd {
	m := c.menu
	c.menu = nil
	if m == nil {
		return nil
	}

	if m.Staged {
		if idx := c.stagedIndex(m.Key); idx >= 0 {
			c.staged = append(c.staged[:idx], c.staged[idx+1:]...)
		}
		return nil
	}

	if c.rowIndex(m.DataID) < 0 {
		return nil
	}

	tableID := c.tableID
	dataID := m.DataID
	gw := c.gw
	return func() tea.Msg {
		err := gw.DeleteRow(context.Background(), dataID)
		return rowDeletedMsg{TableID: tableID, DataID: dataID, Err: err}
	}
}

func (c *Controller) handleRowDeleted(msg rowDeletedMsg) tea.Cmd {
	if msg.Err != nil {
		c.logger.Error("failed to delete row",
			"table_id", msg.TableID, "data_id", msg.DataID, "error", msg.Err)
		c.notify.Error("Failed to delete row. Please try again.")
		return nil
	}

	c.notify.Success("Row deleted successfully")

	if msg.TableID != c.tableID {
		return nil
	}

	if idx := c.rowIndex(msg.DataID); idx >= 0 {
		c.rows = append(c.rows[:idx], c.rows[idx+1:]...)
	}
	for key := range c.statuses {
		if key.DataID == msg.DataID {
			delete(c.statuses, key)
		}
	}
	if c.edit != nil && c.edit.DataID == msg.DataID {
		c.edit = nil
	}

	return c.Refresh()
}
