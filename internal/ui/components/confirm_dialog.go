package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// ConfirmedMsg is sent when a destructive action is confirmed
type ConfirmedMsg struct {
	Purpose string
	Target  models.ID
}

// ConfirmDialog asks a yes/no question before a destructive action
type ConfirmDialog struct {
	Title   string
	Message string
	Purpose string
	Target  models.ID
	Theme   theme.Theme
	Width   int
}

// NewConfirmDialog creates a confirmation dialog for an action on target
func NewConfirmDialog(title, message, purpose string, target models.ID, th theme.Theme) *ConfirmDialog {
	return &ConfirmDialog{
		Title:   title,
		Message: message,
		Purpose: purpose,
		Target:  target,
		Theme:   th,
		Width:   50,
	}
}

// Update handles key presses
func (d *ConfirmDialog) Update(msg tea.KeyMsg) (*ConfirmDialog, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		purpose, target := d.Purpose, d.Target
		return d, func() tea.Msg { return ConfirmedMsg{Purpose: purpose, Target: target} }
	case "n", "N", "esc", "q":
		return d, func() tea.Msg { return CloseDialogMsg{} }
	}
	return d, nil
}

// View renders the dialog
func (d *ConfirmDialog) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(d.Theme.Error)
	helpStyle := lipgloss.NewStyle().Foreground(d.Theme.Metadata).Italic(true)

	content := titleStyle.Render(d.Title) + "\n\n" +
		lipgloss.NewStyle().Width(d.Width-4).Render(d.Message) + "\n\n" +
		helpStyle.Render("y/Enter: confirm │ n/Esc: cancel")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Theme.Error).
		Padding(0, 1).
		Width(d.Width).
		Render(content)
}
