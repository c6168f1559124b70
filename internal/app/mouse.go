package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/components"
)

// handleMouse routes a mouse event. Only presses and wheel motion matter.
func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if a.showError || a.dialogOpen() || a.state.ViewMode != models.NormalMode {
		return nil
	}

	if a.menu.Visible {
		return a.runMenuAction(a.menu.HandleClick(msg))
	}

	if msg.Action != tea.MouseActionPress {
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.state.FocusedPanel == models.GridPanel {
			a.gridView.MoveCursor(-1, 0)
		}
		return nil
	case tea.MouseButtonWheelDown:
		if a.state.FocusedPanel == models.GridPanel {
			a.gridView.MoveCursor(1, 0)
		}
		return nil
	}

	if node, ok := a.treeView.HandleClick(msg); ok {
		commit := a.leaveEditor()
		if a.state.FocusedPanel != models.RosterPanel {
			a.state.FocusedPanel = models.RosterPanel
			a.updatePanelStyles()
		}
		if node.Type == models.TreeNodeTypeRepository && node.RepositoryID() == a.roster.ActiveRepository() {
			node.Toggle()
			a.expanded[node.RepositoryID()] = node.Expanded
			return commit
		}
		return tea.Batch(commit, a.selectNode(node))
	}

	return a.handleGridClick(msg)
}

func (a *App) handleGridClick(msg tea.MouseMsg) tea.Cmd {
	gv := a.gridView
	commit := a.leaveEditor()

	row, col, double, ok := gv.HandleClick(msg, a.now())
	if !ok {
		return commit
	}
	if a.state.FocusedPanel != models.GridPanel {
		a.state.FocusedPanel = models.GridPanel
		a.updatePanelStyles()
	}

	switch {
	case msg.Button == tea.MouseButtonRight:
		return tea.Batch(commit, a.openMenu(row, msg.X, msg.Y))
	case double:
		return tea.Batch(commit, a.beginEdit(row, col))
	}
	return commit
}

// leaveEditor closes the inline editor because focus moved elsewhere.
// A persisted cell is committed; staged values are already in the row.
func (a *App) leaveEditor() tea.Cmd {
	gv := a.gridView
	if !gv.Editing() {
		return nil
	}
	staged := gv.EditingStaged()
	gv.StopEditor()
	if staged {
		return nil
	}
	return a.grid.CommitEdit()
}

// openMenu opens the row context menu for the display row at x,y
func (a *App) openMenu(row, x, y int) tea.Cmd {
	persisted := len(a.grid.Rows())
	staged := row >= persisted
	index := row
	if staged {
		index = row - persisted
	}
	if !a.grid.OpenMenu(index, staged, x, y) {
		return nil
	}
	a.menu.Open(x, y)
	return nil
}

// menuAnchor places a keyboard-opened menu next to the grid cursor
func (a *App) menuAnchor() (int, int) {
	// Top bar, border, title, header and separator sit above the first row
	x := a.rosterPanel.Width + 3
	y := 5 + a.gridView.CursorRow - a.gridView.TopRow
	return x, y
}

func (a *App) runMenuAction(action components.MenuAction) tea.Cmd {
	switch action {
	case components.MenuDeleteRow:
		a.menu.Close()
		return a.grid.DeleteMenuTarget()

	case components.MenuCopyRow:
		a.menu.Close()
		target, ok := a.grid.Menu()
		a.grid.CloseMenu()
		if !ok {
			return nil
		}
		row := target.Index
		if target.Staged {
			row += len(a.grid.Rows())
		}
		return a.copy(strings.Join(a.gridView.RowValues(row), "\t"), "Row copied")

	case components.MenuCancel:
		a.menu.Close()
		a.grid.CloseMenu()
	}
	return nil
}
