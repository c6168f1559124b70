package models

// Panel identifies one of the two side-by-side panels
type Panel int

const (
	RosterPanel Panel = iota
	GridPanel
)

// Mode is what occupies the main area of the screen
type Mode int

const (
	NormalMode Mode = iota
	HelpMode
	HistoryMode
)

// Layout is the screen geometry and focus of the terminal client.
// RosterRatio is the roster panel width in percent of the terminal.
type Layout struct {
	Width, Height int
	RosterRatio   int
	FocusedPanel  Panel
	ViewMode      Mode
}

// NewLayout returns the layout used before the first window size arrives
func NewLayout(rosterRatio int) Layout {
	if rosterRatio <= 0 || rosterRatio >= 100 {
		rosterRatio = 25
	}
	return Layout{Width: 80, Height: 24, RosterRatio: rosterRatio}
}
