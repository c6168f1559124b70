package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Table colors
	TableHeader      lipgloss.Color
	TableRowEven     lipgloss.Color
	TableRowOdd      lipgloss.Color
	TableRowSelected lipgloss.Color
	StagedRow        lipgloss.Color
	ImmutableColumn  lipgloss.Color

	// Cell status colors
	CellDirty   lipgloss.Color
	CellPending lipgloss.Color
	CellFailed  lipgloss.Color

	// Roster colors
	RepositoryActive   lipgloss.Color
	RepositoryInactive lipgloss.Color
	TableIcon          lipgloss.Color
	TableActive        lipgloss.Color
	Metadata           lipgloss.Color
}

// Names lists the themes GetTheme knows about.
func Names() []string {
	return []string{"default", "catppuccin-mocha"}
}

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}
