package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// HistorySearchMsg asks for activity entries containing Query ("" = recent)
type HistorySearchMsg struct {
	Query string
}

// CloseHistoryMsg is sent when the history view is dismissed
type CloseHistoryMsg struct{}

// HistoryView lists past notifications, newest first
type HistoryView struct {
	Entries []models.Notification
	Cursor  int
	Top     int
	Search  textinput.Model
	Theme   theme.Theme
	Width   int
	Height  int

	searching bool
}

// NewHistoryView creates an empty history view
func NewHistoryView(th theme.Theme) *HistoryView {
	ti := textinput.New()
	ti.Placeholder = "Filter messages..."
	ti.CharLimit = 128
	return &HistoryView{Search: ti, Theme: th, Width: 80, Height: 20}
}

// SetEntries replaces the listed entries
func (h *HistoryView) SetEntries(entries []models.Notification) {
	h.Entries = entries
	h.Cursor, h.Top = 0, 0
}

// Update handles messages
func (h *HistoryView) Update(msg tea.Msg) (*HistoryView, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if h.searching {
		if ok {
			switch key.String() {
			case "enter":
				h.searching = false
				h.Search.Blur()
				query := h.Search.Value()
				return h, func() tea.Msg { return HistorySearchMsg{Query: query} }
			case "esc":
				h.searching = false
				h.Search.Blur()
				h.Search.SetValue("")
				return h, func() tea.Msg { return HistorySearchMsg{} }
			}
		}
		var cmd tea.Cmd
		h.Search, cmd = h.Search.Update(msg)
		return h, cmd
	}
	if !ok {
		return h, nil
	}

	switch key.String() {
	case "esc", "q", "H":
		return h, func() tea.Msg { return CloseHistoryMsg{} }
	case "/":
		h.searching = true
		return h, h.Search.Focus()
	case "up", "k":
		if h.Cursor > 0 {
			h.Cursor--
		}
	case "down", "j":
		if h.Cursor < len(h.Entries)-1 {
			h.Cursor++
		}
	case "g":
		h.Cursor = 0
	case "G":
		h.Cursor = max(len(h.Entries)-1, 0)
	}
	return h, nil
}

// Searching reports whether the filter input has focus
func (h *HistoryView) Searching() bool {
	return h.searching
}

// View renders the list
func (h *HistoryView) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(h.Theme.BorderFocused)
	dim := lipgloss.NewStyle().Foreground(h.Theme.Metadata)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Activity History"))
	if q := h.Search.Value(); q != "" && !h.searching {
		b.WriteString(dim.Render(fmt.Sprintf("  filter: %q", q)))
	}
	b.WriteString("\n")
	if h.searching {
		b.WriteString("🔍 " + h.Search.View())
	}
	b.WriteString("\n")

	rows := max(h.Height-6, 1)
	if h.Cursor < h.Top {
		h.Top = h.Cursor
	}
	if h.Cursor >= h.Top+rows {
		h.Top = h.Cursor - rows + 1
	}

	if len(h.Entries) == 0 {
		b.WriteString(dim.Italic(true).Render("No activity yet"))
	}
	end := min(h.Top+rows, len(h.Entries))
	for i := h.Top; i < end; i++ {
		b.WriteString(h.renderEntry(h.Entries[i], i == h.Cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Italic(true).Render("j/k: scroll │ /: filter │ Esc: close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.Theme.BorderFocused).
		Padding(0, 1).
		Width(max(h.Width-4, 20)).
		Render(b.String())
}

func (h *HistoryView) renderEntry(n models.Notification, selected bool) string {
	icon := lipgloss.NewStyle().Foreground(h.Theme.Success).Render("✓")
	if n.Kind == models.NotificationError {
		icon = lipgloss.NewStyle().Foreground(h.Theme.Error).Render("✗")
	}

	when := n.At.Local().Format("2006-01-02 15:04:05")
	table := ""
	if !n.TableID.IsZero() {
		table = " [" + n.TableID.String() + "]"
	}

	line := fmt.Sprintf("%s %s%s %s", icon, when, table, n.Message)
	line = ansi.Truncate(line, max(h.Width-8, 10), "…")

	style := lipgloss.NewStyle().Foreground(h.Theme.Foreground)
	if selected {
		style = style.Background(h.Theme.Selection).Bold(true)
	}
	return style.Render(line)
}
