package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// ZoneContextMenuPrefix prefixes the mouse zone of every context menu item
const ZoneContextMenuPrefix = "ctx-menu:"

// MenuAction identifies a context menu entry
type MenuAction int

const (
	MenuNone MenuAction = iota
	MenuDeleteRow
	MenuCopyRow
	MenuCancel
)

// MenuItem is a single entry in the context menu
type MenuItem struct {
	Label  string
	Action MenuAction
}

// RowMenuItems are the entries of the row context menu
func RowMenuItems() []MenuItem {
	return []MenuItem{
		{Label: "Delete row", Action: MenuDeleteRow},
		{Label: "Copy row", Action: MenuCopyRow},
		{Label: "Cancel", Action: MenuCancel},
	}
}

// ContextMenu is a floating menu anchored at a screen position. While open
// it captures keyboard input and any click outside its bounds dismisses it.
type ContextMenu struct {
	Items   []MenuItem
	Cursor  int
	X, Y    int
	Visible bool
	Theme   theme.Theme
}

// NewContextMenu creates a hidden context menu
func NewContextMenu(th theme.Theme) *ContextMenu {
	return &ContextMenu{Items: RowMenuItems(), Theme: th}
}

// Open shows the menu at x, y
func (m *ContextMenu) Open(x, y int) {
	m.X, m.Y = x, y
	m.Cursor = 0
	m.Visible = true
}

// Close hides the menu
func (m *ContextMenu) Close() {
	m.Visible = false
}

// Size returns the rendered width and height of the menu
func (m *ContextMenu) Size() (int, int) {
	lines := m.lines()
	if len(lines) == 0 {
		return 0, 0
	}
	return ansi.StringWidth(lines[0]), len(lines)
}

// Contains reports whether the screen position lies inside the menu
func (m *ContextMenu) Contains(x, y int) bool {
	w, h := m.Size()
	return x >= m.X && x < m.X+w && y >= m.Y && y < m.Y+h
}

// HandleKey moves the cursor or picks an entry. It returns MenuNone until
// the user chooses something; Esc yields MenuCancel.
func (m *ContextMenu) HandleKey(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "up", "k":
		m.Cursor--
		if m.Cursor < 0 {
			m.Cursor = len(m.Items) - 1
		}
	case "down", "j", "tab":
		m.Cursor++
		if m.Cursor >= len(m.Items) {
			m.Cursor = 0
		}
	case "enter":
		return m.Items[m.Cursor].Action
	case "d", "x":
		return MenuDeleteRow
	case "y":
		return MenuCopyRow
	case "esc", "q":
		return MenuCancel
	}
	return MenuNone
}

// HandleClick resolves a mouse press while the menu is open. A press on an
// item returns its action, a press anywhere else returns MenuCancel.
func (m *ContextMenu) HandleClick(msg tea.MouseMsg) MenuAction {
	if msg.Action != tea.MouseActionPress {
		return MenuNone
	}
	for i, item := range m.Items {
		if zone.Get(fmt.Sprintf("%s%d", ZoneContextMenuPrefix, i)).InBounds(msg) {
			m.Cursor = i
			return item.Action
		}
	}
	if m.Contains(msg.X, msg.Y) {
		return MenuNone
	}
	return MenuCancel
}

// Overlay splices the menu into a rendered screen
func (m *ContextMenu) Overlay(view string, screenW, screenH int) string {
	if !m.Visible {
		return view
	}
	w, h := m.Size()
	m.X, m.Y = PlaceWithin(m.X, m.Y, w, h, screenW, screenH)

	lines := m.lines()
	for i := range m.Items {
		// Item lines sit below the top border.
		lines[i+1] = zone.Mark(fmt.Sprintf("%s%d", ZoneContextMenuPrefix, i), lines[i+1])
	}
	return SpliceOverlay(view, lines, m.X, m.Y)
}

func (m *ContextMenu) lines() []string {
	labelWidth := 0
	for _, item := range m.Items {
		labelWidth = max(labelWidth, ansi.StringWidth(item.Label))
	}
	inner := labelWidth + 4

	border := lipgloss.NewStyle().Foreground(m.Theme.BorderFocused).Background(m.Theme.Background)
	normal := lipgloss.NewStyle().Foreground(m.Theme.Foreground).Background(m.Theme.Background)
	selected := lipgloss.NewStyle().Foreground(m.Theme.Background).Background(m.Theme.BorderFocused).Bold(true)
	danger := normal.Foreground(m.Theme.Error)

	lines := make([]string, 0, len(m.Items)+2)
	lines = append(lines, border.Render("╭"+strings.Repeat("─", inner)+"╮"))
	for i, item := range m.Items {
		marker := " "
		if i == m.Cursor {
			marker = "›"
		}
		text := " " + marker + " " + item.Label
		text += strings.Repeat(" ", inner-ansi.StringWidth(text))

		style := normal
		switch {
		case i == m.Cursor:
			style = selected
		case item.Action == MenuDeleteRow:
			style = danger
		}
		lines = append(lines, border.Render("│")+style.Render(text)+border.Render("│"))
	}
	lines = append(lines, border.Render("╰"+strings.Repeat("─", inner)+"╯"))
	return lines
}
