package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// InputSubmittedMsg is sent when a single-line dialog is confirmed
type InputSubmittedMsg struct {
	Purpose string
	Value   string
}

// CloseDialogMsg is sent when a dialog is dismissed without acting
type CloseDialogMsg struct{}

// InputDialog asks for one line of text, e.g. a repository name
type InputDialog struct {
	Title   string
	Purpose string
	Input   textinput.Model
	Theme   theme.Theme
	Width   int
}

// NewInputDialog creates a focused input dialog
func NewInputDialog(title, placeholder, purpose string, th theme.Theme) *InputDialog {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.Width = 40
	ti.Focus()

	return &InputDialog{
		Title:   title,
		Purpose: purpose,
		Input:   ti,
		Theme:   th,
		Width:   50,
	}
}

// Update handles messages
func (d *InputDialog) Update(msg tea.Msg) (*InputDialog, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			purpose, value := d.Purpose, d.Input.Value()
			return d, func() tea.Msg {
				return InputSubmittedMsg{Purpose: purpose, Value: value}
			}
		case "esc":
			return d, func() tea.Msg { return CloseDialogMsg{} }
		}
	}

	var cmd tea.Cmd
	d.Input, cmd = d.Input.Update(msg)
	return d, cmd
}

// View renders the dialog
func (d *InputDialog) View() string {
	d.Input.Width = max(d.Width-6, 10)

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(d.Theme.BorderFocused)
	helpStyle := lipgloss.NewStyle().Foreground(d.Theme.Metadata).Italic(true)

	content := titleStyle.Render(d.Title) + "\n\n" +
		d.Input.View() + "\n\n" +
		helpStyle.Render("Enter: confirm │ Esc: cancel")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Theme.BorderFocused).
		Padding(0, 1).
		Width(d.Width).
		Render(content)
}
