package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),
		Cursor:        lipgloss.Color("248"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		TableHeader:      lipgloss.Color("62"),
		TableRowEven:     lipgloss.Color("235"),
		TableRowOdd:      lipgloss.Color("236"),
		TableRowSelected: lipgloss.Color("237"),
		StagedRow:        lipgloss.Color("180"),
		ImmutableColumn:  lipgloss.Color("244"),

		CellDirty:   lipgloss.Color("220"),
		CellPending: lipgloss.Color("75"),
		CellFailed:  lipgloss.Color("196"),

		RepositoryActive:   lipgloss.Color("42"),
		RepositoryInactive: lipgloss.Color("244"),
		TableIcon:          lipgloss.Color("141"),
		TableActive:        lipgloss.Color("117"),
		Metadata:           lipgloss.Color("244"),
	}
}
