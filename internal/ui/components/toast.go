package components

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// ToastExpiredMsg is sent when a toast has been visible for its duration
type ToastExpiredMsg struct {
	ID int
}

// DefaultToastDuration is how long a toast stays visible
const DefaultToastDuration = 3 * time.Second

// maxToasts bounds the stack; older toasts are dropped first
const maxToasts = 4

type toast struct {
	id int
	n  models.Notification
}

// Toasts is a stack of transient success and error notices drawn over the
// top-right corner of the screen
type Toasts struct {
	Theme    theme.Theme
	Duration time.Duration
	Width    int

	items  []toast
	nextID int
}

// NewToasts creates an empty toast stack
func NewToasts(th theme.Theme) *Toasts {
	return &Toasts{Theme: th, Duration: DefaultToastDuration, Width: 44}
}

// Push shows a notification and returns the command that expires it
func (t *Toasts) Push(n models.Notification) tea.Cmd {
	t.nextID++
	id := t.nextID
	t.items = append(t.items, toast{id: id, n: n})
	if len(t.items) > maxToasts {
		t.items = t.items[len(t.items)-maxToasts:]
	}

	d := t.Duration
	if d <= 0 {
		d = DefaultToastDuration
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return ToastExpiredMsg{ID: id} })
}

// Expire removes the toast with the given id
func (t *Toasts) Expire(id int) {
	for i, item := range t.items {
		if item.id == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return
		}
	}
}

// Len returns the number of visible toasts
func (t *Toasts) Len() int {
	return len(t.items)
}

// Messages returns the visible toast texts, oldest first
func (t *Toasts) Messages() []string {
	out := make([]string, len(t.items))
	for i, item := range t.items {
		out[i] = item.n.Message
	}
	return out
}

// Lines renders the stack as overlay lines of equal width
func (t *Toasts) Lines() []string {
	if len(t.items) == 0 {
		return nil
	}
	inner := max(t.Width-4, 8)

	var lines []string
	for _, item := range t.items {
		color, icon := t.Theme.Success, "✓"
		if item.n.Kind == models.NotificationError {
			color, icon = t.Theme.Error, "✗"
		}
		style := lipgloss.NewStyle().
			Foreground(t.Theme.Foreground).
			Background(t.Theme.Selection)
		accent := style.Foreground(color).Bold(true)

		text := ansi.Truncate(item.n.Message, inner-2, "…")
		text += strings.Repeat(" ", inner-2-ansi.StringWidth(text))
		lines = append(lines, accent.Render(" "+icon+" ")+style.Render(text+" "))
	}
	return lines
}

// Overlay splices the stack into the top-right corner of a rendered screen
func (t *Toasts) Overlay(view string, screenW int) string {
	lines := t.Lines()
	if len(lines) == 0 {
		return view
	}
	x := max(screenW-ansi.StringWidth(lines[0])-1, 0)
	return SpliceOverlay(view, lines, x, 1)
}
