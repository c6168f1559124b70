package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"

	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/help"
)

// View implements tea.Model
func (a *App) View() string {
	return zone.Scan(a.render())
}

func (a *App) render() string {
	// If error overlay is showing, render it centered on top of everything
	if a.showError {
		return a.centered(a.errorOverlay.View())
	}

	switch {
	case a.confirmDialog != nil:
		return a.centered(a.confirmDialog.View())
	case a.createTableDialog != nil:
		return a.centered(a.createTableDialog.View())
	case a.importDialog != nil:
		return a.centered(a.importDialog.View())
	case a.inputDialog != nil:
		return a.centered(a.inputDialog.View())
	}

	switch a.state.ViewMode {
	case models.HelpMode:
		return help.Render(a.state.Width, a.state.Height, a.theme.BorderFocused)
	case models.HistoryMode:
		a.historyView.Width = a.state.Width
		a.historyView.Height = a.state.Height
		return a.toasts.Overlay(a.historyView.View(), a.state.Width)
	}

	view := a.renderNormalView()
	view = a.toasts.Overlay(view, a.state.Width)
	return a.menu.Overlay(view, a.state.Width, a.state.Height)
}

func (a *App) centered(content string) string {
	return lipgloss.Place(
		a.state.Width, a.state.Height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

// renderNormalView renders the two panels between the top and bottom bars
func (a *App) renderNormalView() string {
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Background).
		Padding(0, 2).
		Render(a.formatStatusBar("lazytdm", a.location()))

	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(a.keyHints(), "[?] Help"))

	a.treeView.Width, a.treeView.Height = a.rosterPanel.InnerSize()
	a.rosterPanel.Content = a.treeView.View()

	a.gridPanel.Title = "Data"
	if t, ok := a.roster.Table(a.grid.TableID()); ok {
		a.gridPanel.Title = t.Name
	}
	a.gridView.Width, a.gridView.Height = a.gridPanel.InnerSize()
	a.gridPanel.Content = a.gridView.View()

	panels := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.rosterPanel.View(),
		a.gridPanel.View(),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		topBar,
		panels,
		bottomBar,
	)
}

// location describes the active repository and table
func (a *App) location() string {
	repoID, tableID := a.roster.ActiveRepository(), a.roster.ActiveTable()
	if repoID.IsZero() {
		return "no repository"
	}
	id := models.RepositoryNodeID(repoID)
	if !tableID.IsZero() {
		id = models.TableNodeID(repoID, tableID)
	}
	if node := a.treeView.Root.FindByID(id); node != nil {
		return strings.Join(node.GetPath(), " › ")
	}
	return "no repository"
}

func (a *App) keyHints() string {
	switch {
	case a.gridView.Editing():
		return "[enter] Save | [esc] Cancel"
	case a.state.FocusedPanel == models.RosterPanel:
		return "[enter] Select | [n] Repo | [t] Table | [d] Delete | [tab] Grid"
	default:
		return "[e] Edit | [a] Add | [ctrl+s] Save | [m] Menu | [tab] Roster"
	}
}

// updatePanelDimensions calculates panel sizes based on window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// Reserve the top and bottom bars
	contentHeight := max(a.state.Height-2, 5)

	leftWidth := max((a.state.Width*a.state.RosterRatio)/100, 20)
	rightWidth := a.state.Width - leftWidth
	if rightWidth < 20 {
		rightWidth = 20
		leftWidth = max(a.state.Width-rightWidth, 0)
	}

	a.rosterPanel.Width = leftWidth
	a.rosterPanel.Height = contentHeight
	a.gridPanel.Width = rightWidth
	a.gridPanel.Height = contentHeight

	a.historyView.Width = a.state.Width
	a.historyView.Height = a.state.Height
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side)
	available := max(a.state.Width-4, 0)

	leftLen := ansi.StringWidth(left)
	rightLen := ansi.StringWidth(right)

	if leftLen+rightLen > available {
		if available > rightLen {
			return ansi.Truncate(left, available-rightLen, "") + right
		}
		return ansi.Truncate(left, available, "")
	}

	spacing := available - leftLen - rightLen
	return left + lipgloss.NewStyle().Width(spacing).Render("") + right
}
