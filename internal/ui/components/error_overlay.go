package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// ErrorOverlay is a modal box for failures that need the user's attention
type ErrorOverlay struct {
	Title   string
	Message string
	Theme   theme.Theme
	Width   int
}

// NewErrorOverlay creates an empty error overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Theme: th, Width: 60}
}

// SetError sets the title and message to show
func (e *ErrorOverlay) SetError(title, message string) {
	e.Title = title
	e.Message = message
}

// View renders the overlay
func (e *ErrorOverlay) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(e.Theme.Error)
	bodyStyle := lipgloss.NewStyle().Foreground(e.Theme.Foreground).Width(e.Width - 4)
	helpStyle := lipgloss.NewStyle().Foreground(e.Theme.Metadata).Italic(true)

	content := titleStyle.Render("✗ "+e.Title) + "\n\n" +
		bodyStyle.Render(e.Message) + "\n\n" +
		helpStyle.Render("Press Esc or Enter to dismiss")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(content)
}
