package app

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/components"
)

// handleKey routes a key press to whatever currently owns the keyboard
func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}

	// Handle error overlay dismissal first if visible
	if a.showError {
		switch key {
		case "esc", "enter":
			a.DismissError()
		case "q":
			return tea.Quit
		}
		return nil
	}

	if a.dialogOpen() {
		return a.handleDialogKey(msg)
	}

	switch a.state.ViewMode {
	case models.HistoryMode:
		var cmd tea.Cmd
		a.historyView, cmd = a.historyView.Update(msg)
		return cmd
	case models.HelpMode:
		if key == "?" || key == "esc" || key == "q" {
			a.state.ViewMode = models.NormalMode
		}
		return nil
	}

	if a.menu.Visible {
		return a.runMenuAction(a.menu.HandleKey(msg))
	}

	if a.gridView.Editing() {
		return a.handleEditorKey(msg)
	}

	// The search bar captures every key while typing
	if a.state.FocusedPanel == models.RosterPanel && a.treeView.Searching() {
		var cmd tea.Cmd
		a.treeView, cmd = a.treeView.Update(msg)
		return cmd
	}

	switch key {
	case "q":
		return tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode
		return nil
	case "tab":
		a.toggleFocus()
		return nil
	case "H":
		a.state.ViewMode = models.HistoryMode
		return a.loadHistory("")
	case "r", "f5":
		return a.refresh()
	}

	if a.state.FocusedPanel == models.RosterPanel {
		return a.handleRosterKey(msg)
	}
	return a.handleGridKey(msg)
}

func (a *App) handleDialogKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case a.confirmDialog != nil:
		a.confirmDialog, cmd = a.confirmDialog.Update(msg)
	case a.createTableDialog != nil:
		a.createTableDialog, cmd = a.createTableDialog.Update(msg)
	case a.importDialog != nil:
		a.importDialog, cmd = a.importDialog.Update(msg)
	case a.inputDialog != nil:
		a.inputDialog, cmd = a.inputDialog.Update(msg)
	}
	return cmd
}

func (a *App) toggleFocus() {
	if a.state.FocusedPanel == models.RosterPanel {
		a.state.FocusedPanel = models.GridPanel
	} else {
		a.state.FocusedPanel = models.RosterPanel
	}
	a.updatePanelStyles()
}

// refresh reloads the focused side: the repository list or the grid
func (a *App) refresh() tea.Cmd {
	if a.state.FocusedPanel == models.RosterPanel {
		return a.roster.RefreshTables()
	}
	if a.grid.TableID().IsZero() {
		return a.roster.RefreshTables()
	}
	return a.grid.Refresh()
}

func (a *App) handleRosterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "n":
		a.inputDialog = components.NewInputDialog("New Repository", "repository name", purposeNewRepository, a.theme)
		return nil

	case "t":
		repoID := a.roster.ActiveRepository()
		if node := a.treeView.GetCurrentNode(); node != nil {
			repoID = node.RepositoryID()
		}
		repo, ok := a.roster.Repository(repoID)
		if !ok {
			a.notify.Error("No repository selected")
			return nil
		}
		a.createTableDialog = components.NewCreateTableDialog(repo.ID, repo.Name, a.theme)
		return nil

	case "d":
		return a.deleteNode(a.treeView.GetCurrentNode())
	}

	var cmd tea.Cmd
	a.treeView, cmd = a.treeView.Update(msg)
	return cmd
}

// deleteNode deletes the repository or table under the cursor, asking first
// when destructive operations need confirmation
func (a *App) deleteNode(node *models.TreeNode) tea.Cmd {
	if node == nil {
		return nil
	}

	var purpose, title string
	switch node.Type {
	case models.TreeNodeTypeRepository:
		purpose, title = purposeDeleteRepository, "Delete Repository"
	case models.TreeNodeTypeTable:
		purpose, title = purposeDeleteTable, "Delete Table"
	default:
		return nil
	}

	confirm := components.ConfirmedMsg{Purpose: purpose, Target: node.RefID}
	if !a.config.General.ConfirmDestructiveOps {
		return a.confirmed(confirm)
	}
	message := fmt.Sprintf("Delete %q? This cannot be undone.", node.Label)
	a.confirmDialog = components.NewConfirmDialog(title, message, purpose, node.RefID, a.theme)
	return nil
}

func (a *App) handleGridKey(msg tea.KeyMsg) tea.Cmd {
	gv := a.gridView
	switch msg.String() {
	case "up", "k":
		gv.MoveCursor(-1, 0)
	case "down", "j":
		gv.MoveCursor(1, 0)
	case "left", "h":
		gv.MoveCursor(0, -1)
	case "right", "l":
		gv.MoveCursor(0, 1)
	case "pgup", "ctrl+u":
		gv.PageUp()
	case "pgdown", "ctrl+d":
		gv.PageDown()
	case "g", "home":
		gv.SetCursor(0, gv.CursorCol)
	case "G", "end":
		gv.SetCursor(gv.TotalRows()-1, gv.CursorCol)

	case "enter", "e":
		return a.beginEdit(gv.CursorRow, gv.CursorCol)

	case "a":
		if a.grid.AddRow() {
			gv.SetCursor(gv.TotalRows()-1, firstEditable(a.grid.Headers(), a.grid.IsImmutable))
		}
	case "ctrl+s":
		return a.grid.SaveStaged()

	case "m":
		x, y := a.menuAnchor()
		return a.openMenu(gv.CursorRow, x, y)

	case "y":
		if gv.TotalRows() == 0 {
			return nil
		}
		return a.copy(gv.CellValue(gv.CursorRow, gv.CursorCol), "Cell copied")
	case "Y":
		if gv.TotalRows() == 0 {
			return nil
		}
		return a.copy(strings.Join(gv.RowValues(gv.CursorRow), "\t"), "Row copied")

	case "i":
		if a.grid.TableID().IsZero() {
			a.notify.Error("No table selected")
			return nil
		}
		name := a.grid.TableID().String()
		if t, ok := a.roster.Table(a.grid.TableID()); ok {
			name = t.Name
		}
		a.importDialog = components.NewImportDialog(name, a.config.Data.DownloadDir, a.theme)
		return a.importDialog.Init()
	case "x":
		return a.grid.Export()
	case "E":
		_ = a.grid.SnapshotCSV(a.snapshotPath("csv"))
	case "J":
		_ = a.grid.SnapshotJSON(a.snapshotPath("json"))
	}
	return nil
}

// beginEdit opens the inline editor on a persisted or staged cell
func (a *App) beginEdit(row, col int) tea.Cmd {
	gv := a.gridView
	gv.SetCursor(row, col)

	if gv.InStaged() {
		idx := gv.StagedIndex()
		if !a.grid.CanEditStaged(idx, col) {
			return nil
		}
		return gv.StartEditor(gv.CellValue(row, col), true)
	}

	if !a.grid.CanEdit(row, col) {
		return nil
	}
	cmd := a.grid.BeginEdit(row, col)
	return tea.Batch(cmd, gv.StartEditor(a.grid.EditValue(), false))
}

// handleEditorKey feeds the inline editor; Enter and Tab save, Esc cancels
func (a *App) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	gv := a.gridView
	switch msg.String() {
	case "enter", "tab":
		staged := gv.EditingStaged()
		gv.StopEditor()
		if staged {
			return nil
		}
		return a.grid.CommitEdit()
	case "esc":
		staged := gv.EditingStaged()
		gv.StopEditor()
		if !staged {
			a.grid.CancelEdit()
		}
		return nil
	}

	cmd, changed := gv.UpdateEditor(msg)
	if !changed {
		return cmd
	}
	if gv.EditingStaged() {
		a.grid.SetStagedCell(gv.StagedIndex(), gv.CursorCol, gv.EditorValue())
	} else {
		a.grid.EditInput(gv.EditorValue())
	}
	return cmd
}

// copy writes text to the clipboard and reports the outcome
func (a *App) copy(text, success string) tea.Cmd {
	if err := a.clipboard(text); err != nil {
		a.logger.Warn("failed to copy to clipboard", "error", err)
		a.notify.Error("Failed to copy to clipboard")
		return nil
	}
	a.notify.Success(success)
	return nil
}

func (a *App) snapshotPath(ext string) string {
	name := fmt.Sprintf("%s-%s.%s", a.grid.TableID(), a.now().Format("20060102-150405"), ext)
	return filepath.Join(a.config.Data.DownloadDir, name)
}

func firstEditable(headers []string, immutable func(string) bool) int {
	for i, h := range headers {
		if !immutable(h) {
			return i
		}
	}
	return 0
}
