package components

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// ImportFileMsg is sent when the user asks to upload the chosen file.
// Path is empty when nothing was chosen.
type ImportFileMsg struct {
	Path string
}

// ImportAllowedTypes are the spreadsheet formats the gateway accepts
var ImportAllowedTypes = []string{".xlsx", ".csv"}

// ImportDialog lets the user pick a spreadsheet and upload it into the active table
type ImportDialog struct {
	TableName string
	Picker    filepicker.Model
	Selected  string
	Theme     theme.Theme
	Width     int
	Height    int
}

// NewImportDialog creates a picker rooted at dir (the home directory when empty)
func NewImportDialog(tableName, dir string, th theme.Theme) *ImportDialog {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = home
		} else {
			dir = "."
		}
	}

	fp := filepicker.New()
	fp.AllowedTypes = ImportAllowedTypes
	fp.CurrentDirectory = dir
	fp.ShowHidden = false
	fp.AutoHeight = false
	fp.Height = 12

	return &ImportDialog{
		TableName: tableName,
		Picker:    fp,
		Theme:     th,
		Width:     64,
		Height:    20,
	}
}

// Init starts reading the picker directory
func (d *ImportDialog) Init() tea.Cmd {
	return d.Picker.Init()
}

// Update handles messages
func (d *ImportDialog) Update(msg tea.Msg) (*ImportDialog, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q":
			return d, func() tea.Msg { return CloseDialogMsg{} }
		case "u", "ctrl+s":
			path := d.Selected
			return d, func() tea.Msg { return ImportFileMsg{Path: path} }
		}
	}

	var cmd tea.Cmd
	d.Picker, cmd = d.Picker.Update(msg)

	if selected, path := d.Picker.DidSelectFile(msg); selected {
		d.Selected = path
	}
	return d, cmd
}

// View renders the dialog
func (d *ImportDialog) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(d.Theme.BorderFocused)
	dimStyle := lipgloss.NewStyle().Foreground(d.Theme.Metadata)
	helpStyle := dimStyle.Italic(true)

	d.Picker.Height = max(d.Height-8, 3)

	selected := dimStyle.Render("No file selected")
	if d.Selected != "" {
		selected = lipgloss.NewStyle().Foreground(d.Theme.Success).Render("Selected: " + filepath.Base(d.Selected))
	}

	content := strings.Join([]string{
		titleStyle.Render("Upload into " + d.TableName),
		dimStyle.Render(d.Picker.CurrentDirectory),
		"",
		d.Picker.View(),
		"",
		selected,
		helpStyle.Render("Enter: choose │ u: upload │ Esc: cancel"),
	}, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Theme.BorderFocused).
		Padding(0, 1).
		Width(d.Width).
		Render(content)
}
