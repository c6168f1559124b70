package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section groups key bindings under a heading
type Section struct {
	Title    string
	Bindings []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc/Enter", "Dismiss error"},
		{"Tab", "Switch panel focus"},
		{"r, F5", "Refresh current view"},
		{"H", "Activity history"},
	}
}

// GetRosterKeys returns repository and table list key bindings
func GetRosterKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k, ↓/j", "Move up / down"},
		{"←/h, →/l", "Collapse / expand repository"},
		{"Enter", "Select repository or table"},
		{"/", "Search (r: repository, t: table)"},
		{"n", "New repository"},
		{"t", "New table in active repository"},
		{"d", "Delete repository or table"},
	}
}

// GetGridKeys returns data grid key bindings
func GetGridKeys() []KeyBinding {
	return []KeyBinding{
		{"Arrows/hjkl", "Move cell cursor"},
		{"Enter, e", "Edit cell (double-click)"},
		{"Enter/Tab", "Save cell while editing"},
		{"Esc", "Cancel cell edit"},
		{"a", "Add new row"},
		{"Ctrl+S", "Save new rows"},
		{"m", "Row menu (right-click)"},
		{"y, Shift+Y", "Copy cell / row"},
		{"i", "Import spreadsheet"},
		{"x", "Download table as xlsx"},
		{"Shift+E, Shift+J", "Snapshot rows to CSV / JSON"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Repositories", GetRosterKeys()},
		{"Data Grid", GetGridKeys()},
	}
}

// Render creates the help view
func Render(width, height int, accent lipgloss.Color) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(accent).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("75")).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazytdm - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, section := range Sections() {
		b.WriteString(sectionStyle.Render(section.Title))
		b.WriteString("\n")
		for _, kb := range section.Bindings {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(max(width-4, 20)).
		Height(max(height-4, 5))

	return boxStyle.Render(b.String())
}
