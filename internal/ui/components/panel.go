package components

import (
	"github.com/charmbracelet/lipgloss"
)

// Panel represents a bordered UI panel
type Panel struct {
	Title   string
	Content string
	Width   int
	Height  int
	Style   lipgloss.Style
}

// View renders the panel. Width and Height are the outer size.
func (p *Panel) View() string {
	if p.Width <= 2 || p.Height <= 2 {
		return ""
	}

	style := p.Style.
		Width(p.Width - 2).
		Height(p.Height - 2).
		MaxHeight(p.Height).
		Border(lipgloss.RoundedBorder())

	content := p.Content
	if p.Title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		content = titleStyle.Render(p.Title) + "\n" + content
	}

	return style.Render(content)
}

// InnerSize returns the space left for content inside the border and title
func (p *Panel) InnerSize() (int, int) {
	h := p.Height - 2
	if p.Title != "" {
		h--
	}
	return max(p.Width-2, 0), max(h, 0)
}
