package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// CreateTableMsg is sent when the create table form is submitted
type CreateTableMsg struct {
	RepositoryID models.ID
	Name         string
	Columns      []string
}

// CreateTableDialog collects a table name and its column names.
// Focus 0 is the name field, focus i>0 is column i-1.
type CreateTableDialog struct {
	RepositoryID   models.ID
	RepositoryName string
	Name           textinput.Model
	Columns        []textinput.Model
	Focus          int
	ErrorText      string
	Theme          theme.Theme
	Width          int
}

// NewCreateTableDialog creates a form with one empty column field
func NewCreateTableDialog(repoID models.ID, repoName string, th theme.Theme) *CreateTableDialog {
	name := textinput.New()
	name.Placeholder = "Table name"
	name.CharLimit = 128
	name.Focus()

	d := &CreateTableDialog{
		RepositoryID:   repoID,
		RepositoryName: repoName,
		Name:           name,
		Theme:          th,
		Width:          56,
	}
	d.AddColumn()
	d.setFocus(0)
	return d
}

// AddColumn appends an empty column field and focuses it
func (d *CreateTableDialog) AddColumn() {
	col := textinput.New()
	col.Placeholder = fmt.Sprintf("Column %d", len(d.Columns)+1)
	col.CharLimit = 128
	d.Columns = append(d.Columns, col)
	d.setFocus(len(d.Columns))
}

// RemoveColumn removes the focused column field; the last one always stays
func (d *CreateTableDialog) RemoveColumn() {
	i := d.Focus - 1
	if i < 0 || len(d.Columns) <= 1 {
		return
	}
	d.Columns = append(d.Columns[:i], d.Columns[i+1:]...)
	d.setFocus(min(d.Focus, len(d.Columns)))
}

// ColumnValues returns the raw column field values in order
func (d *CreateTableDialog) ColumnValues() []string {
	values := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		values[i] = c.Value()
	}
	return values
}

func (d *CreateTableDialog) setFocus(i int) {
	fields := len(d.Columns) + 1
	d.Focus = ((i % fields) + fields) % fields

	d.Name.Blur()
	for j := range d.Columns {
		d.Columns[j].Blur()
	}
	if d.Focus == 0 {
		d.Name.Focus()
	} else {
		d.Columns[d.Focus-1].Focus()
	}
}

// Update handles messages
func (d *CreateTableDialog) Update(msg tea.Msg) (*CreateTableDialog, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return d, func() tea.Msg { return CloseDialogMsg{} }
		case "tab", "down":
			d.setFocus(d.Focus + 1)
			return d, nil
		case "shift+tab", "up":
			d.setFocus(d.Focus - 1)
			return d, nil
		case "ctrl+n":
			d.AddColumn()
			return d, nil
		case "ctrl+d":
			d.RemoveColumn()
			return d, nil
		case "enter":
			out := CreateTableMsg{
				RepositoryID: d.RepositoryID,
				Name:         d.Name.Value(),
				Columns:      d.ColumnValues(),
			}
			return d, func() tea.Msg { return out }
		}
	}

	var cmd tea.Cmd
	if d.Focus == 0 {
		d.Name, cmd = d.Name.Update(msg)
	} else {
		d.Columns[d.Focus-1], cmd = d.Columns[d.Focus-1].Update(msg)
	}
	d.ErrorText = ""
	return d, cmd
}

// View renders the form
func (d *CreateTableDialog) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(d.Theme.BorderFocused)
	labelStyle := lipgloss.NewStyle().Foreground(d.Theme.Metadata)
	activeLabel := lipgloss.NewStyle().Foreground(d.Theme.Foreground).Bold(true)
	helpStyle := lipgloss.NewStyle().Foreground(d.Theme.Metadata).Italic(true)

	inputWidth := max(d.Width-16, 10)
	var b strings.Builder

	b.WriteString(titleStyle.Render("New table in " + d.RepositoryName))
	b.WriteString("\n\n")

	label := labelStyle
	if d.Focus == 0 {
		label = activeLabel
	}
	d.Name.Width = inputWidth
	b.WriteString(label.Width(10).Render("Name"))
	b.WriteString(d.Name.View())
	b.WriteString("\n\n")

	for i := range d.Columns {
		label := labelStyle
		if d.Focus == i+1 {
			label = activeLabel
		}
		d.Columns[i].Width = inputWidth
		b.WriteString(label.Width(10).Render(fmt.Sprintf("Col %d", i+1)))
		b.WriteString(d.Columns[i].View())
		b.WriteString("\n")
	}

	if d.ErrorText != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(d.Theme.Error).Render(d.ErrorText))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Tab: next │ Ctrl+N: add column │ Ctrl+D: remove │ Enter: create │ Esc: cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Theme.BorderFocused).
		Padding(0, 1).
		Width(d.Width).
		Render(b.String())
}
