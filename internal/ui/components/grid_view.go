package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// ZoneGridCellPrefix prefixes the mouse zone of every rendered grid cell
const ZoneGridCellPrefix = "grid-cell:"

// DoubleClickInterval is the window in which two clicks on one cell count
// as a double activation
const DoubleClickInterval = 400 * time.Millisecond

// GridSource is the read side of the grid state the view renders
type GridSource interface {
	TableID() models.ID
	Headers() []string
	Rows() []models.Row
	Staged() []models.StagedRow
	Status(dataID models.ID, column string) models.CellStatus
	IsImmutable(column string) bool
	Loading() bool
	LoadErr() error
	Saving() bool
}

// GridView displays persisted rows followed by staged rows with a cell
// cursor, virtual scrolling in both directions and an inline editor.
type GridView struct {
	Source GridSource
	Theme  theme.Theme
	Width  int
	Height int

	// MaxCellWidth caps the rendered width of a column
	MaxCellWidth int

	// Cursor position; rows past the persisted ones address staged rows
	CursorRow int
	CursorCol int

	// Viewport
	TopRow  int
	LeftCol int

	ColumnWidths []int

	editor        textinput.Model
	editing       bool
	editingStaged bool

	lastClickRow int
	lastClickCol int
	lastClickAt  time.Time
}

// NewGridView creates a grid view over src
func NewGridView(src GridSource, th theme.Theme) *GridView {
	editor := textinput.New()
	editor.Prompt = ""
	editor.Cursor.Style = lipgloss.NewStyle().Foreground(th.Cursor)

	return &GridView{
		Source:       src,
		Theme:        th,
		MaxCellWidth: 40,
		editor:       editor,
		lastClickRow: -1,
	}
}

// SetTheme swaps the palette, e.g. after a config reload
func (gv *GridView) SetTheme(th theme.Theme) {
	gv.Theme = th
	gv.editor.Cursor.Style = lipgloss.NewStyle().Foreground(th.Cursor)
}

// Reset moves the cursor and viewport back to the top-left corner
func (gv *GridView) Reset() {
	gv.CursorRow, gv.CursorCol = 0, 0
	gv.TopRow, gv.LeftCol = 0, 0
	gv.StopEditor()
}

// TotalRows is the number of persisted plus staged rows
func (gv *GridView) TotalRows() int {
	return len(gv.Source.Rows()) + len(gv.Source.Staged())
}

// InStaged reports whether the cursor is on a staged row
func (gv *GridView) InStaged() bool {
	return gv.CursorRow >= len(gv.Source.Rows())
}

// StagedIndex returns the staged row index under the cursor
func (gv *GridView) StagedIndex() int {
	return gv.CursorRow - len(gv.Source.Rows())
}

// CurrentColumn returns the header under the cursor
func (gv *GridView) CurrentColumn() string {
	headers := gv.Source.Headers()
	if gv.CursorCol < 0 || gv.CursorCol >= len(headers) {
		return ""
	}
	return headers[gv.CursorCol]
}

// CellValue returns the value of a cell addressed in view coordinates
func (gv *GridView) CellValue(row, col int) string {
	headers := gv.Source.Headers()
	if col < 0 || col >= len(headers) {
		return ""
	}
	cells := gv.rowCells(row)
	if cells == nil {
		return ""
	}
	return cells[headers[col]]
}

// RowValues returns the cells of a view row in header order
func (gv *GridView) RowValues(row int) []string {
	cells := gv.rowCells(row)
	if cells == nil {
		return nil
	}
	headers := gv.Source.Headers()
	values := make([]string, len(headers))
	for i, h := range headers {
		values[i] = cells[h]
	}
	return values
}

func (gv *GridView) rowCells(row int) map[string]string {
	rows := gv.Source.Rows()
	if row >= 0 && row < len(rows) {
		return rows[row].Cells
	}
	staged := gv.Source.Staged()
	if i := row - len(rows); i >= 0 && i < len(staged) {
		return staged[i].Cells
	}
	return nil
}

// MoveCursor moves the cell cursor, clamped to the grid
func (gv *GridView) MoveCursor(dRow, dCol int) {
	gv.SetCursor(gv.CursorRow+dRow, gv.CursorCol+dCol)
}

// SetCursor places the cell cursor, clamped to the grid
func (gv *GridView) SetCursor(row, col int) {
	gv.CursorRow = min(max(row, 0), max(gv.TotalRows()-1, 0))
	gv.CursorCol = min(max(col, 0), max(len(gv.Source.Headers())-1, 0))
}

// PageDown moves the cursor down by one page
func (gv *GridView) PageDown() {
	gv.MoveCursor(gv.visibleRows(), 0)
}

// PageUp moves the cursor up by one page
func (gv *GridView) PageUp() {
	gv.MoveCursor(-gv.visibleRows(), 0)
}

// Clamp keeps the cursor inside the grid after the data changed
func (gv *GridView) Clamp() {
	gv.SetCursor(gv.CursorRow, gv.CursorCol)
}

// StartEditor opens the inline editor on the cursor cell with value
func (gv *GridView) StartEditor(value string, staged bool) tea.Cmd {
	gv.editing = true
	gv.editingStaged = staged
	gv.editor.SetValue(value)
	gv.editor.CursorEnd()
	return gv.editor.Focus()
}

// StopEditor closes the inline editor
func (gv *GridView) StopEditor() {
	gv.editing = false
	gv.editingStaged = false
	gv.editor.Blur()
}

// Editing reports whether the inline editor is open
func (gv *GridView) Editing() bool {
	return gv.editing
}

// EditingStaged reports whether the open editor targets a staged row
func (gv *GridView) EditingStaged() bool {
	return gv.editing && gv.editingStaged
}

// EditorValue returns the text in the inline editor
func (gv *GridView) EditorValue() string {
	return gv.editor.Value()
}

// UpdateEditor forwards a key to the inline editor and reports whether the
// value changed
func (gv *GridView) UpdateEditor(msg tea.Msg) (tea.Cmd, bool) {
	before := gv.editor.Value()
	var cmd tea.Cmd
	gv.editor, cmd = gv.editor.Update(msg)
	return cmd, gv.editor.Value() != before
}

// HandleClick resolves a mouse press to a cell. double is set when the same
// cell was pressed twice within DoubleClickInterval.
func (gv *GridView) HandleClick(msg tea.MouseMsg, now time.Time) (row, col int, double, ok bool) {
	if msg.Action != tea.MouseActionPress {
		return -1, -1, false, false
	}
	row, col, ok = gv.cellAt(msg)
	if !ok {
		return -1, -1, false, false
	}

	if msg.Button == tea.MouseButtonLeft {
		double = row == gv.lastClickRow && col == gv.lastClickCol &&
			now.Sub(gv.lastClickAt) <= DoubleClickInterval
		if double {
			gv.lastClickRow = -1
		} else {
			gv.lastClickRow, gv.lastClickCol, gv.lastClickAt = row, col, now
		}
	}
	gv.SetCursor(row, col)
	return row, col, double, true
}

func (gv *GridView) cellAt(msg tea.MouseMsg) (int, int, bool) {
	headers := gv.Source.Headers()
	end := min(gv.TopRow+gv.visibleRows(), gv.TotalRows())
	for r := gv.TopRow; r < end; r++ {
		for c := gv.LeftCol; c < len(headers); c++ {
			if zone.Get(CellZoneID(r, c)).InBounds(msg) {
				return r, c, true
			}
		}
	}
	return -1, -1, false
}

// CellZoneID names the mouse zone of a rendered cell
func CellZoneID(row, col int) string {
	return fmt.Sprintf("%s%d:%d", ZoneGridCellPrefix, row, col)
}

// visibleRows is the number of data lines that fit; header, separator and
// status take three lines
func (gv *GridView) visibleRows() int {
	return max(gv.Height-3, 1)
}

// calculateColumnWidths sizes every column to its widest value within bounds
func (gv *GridView) calculateColumnWidths() {
	headers := gv.Source.Headers()
	maxWidth := gv.MaxCellWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}
	const minWidth = 6

	gv.ColumnWidths = make([]int, len(headers))
	for i, h := range headers {
		w := ansi.StringWidth(h)
		for r := 0; r < gv.TotalRows(); r++ {
			w = max(w, ansi.StringWidth(displayValue(gv.rowCells(r)[h])))
		}
		gv.ColumnWidths[i] = min(max(w, minWidth), maxWidth)
	}
}

// adjustViewport keeps the cursor inside the visible window
func (gv *GridView) adjustViewport() {
	visible := gv.visibleRows()
	if gv.CursorRow < gv.TopRow {
		gv.TopRow = gv.CursorRow
	}
	if gv.CursorRow >= gv.TopRow+visible {
		gv.TopRow = gv.CursorRow - visible + 1
	}
	gv.TopRow = min(max(gv.TopRow, 0), max(gv.TotalRows()-visible, 0))

	if gv.CursorCol < gv.LeftCol {
		gv.LeftCol = gv.CursorCol
	}
	for gv.LeftCol < gv.CursorCol && !gv.columnFits(gv.CursorCol) {
		gv.LeftCol++
	}
}

// columnFits reports whether col is fully visible starting from LeftCol
func (gv *GridView) columnFits(col int) bool {
	used := 2 // row gutter
	for c := gv.LeftCol; c <= col && c < len(gv.ColumnWidths); c++ {
		used += gv.ColumnWidths[c] + 3
	}
	return used <= gv.Width
}

// View renders the grid
func (gv *GridView) View() string {
	src := gv.Source
	switch {
	case src.TableID().IsZero():
		return gv.message("Select a table from the repository list")
	case src.Loading():
		return gv.message("Loading...")
	case src.LoadErr() != nil:
		return gv.message("Failed to fetch data. Press r to retry.")
	case len(src.Headers()) == 0:
		return gv.message("No data")
	}

	gv.Clamp()
	gv.calculateColumnWidths()
	gv.adjustViewport()

	var b strings.Builder
	b.WriteString(gv.renderHeader())
	b.WriteString("\n")
	b.WriteString(gv.renderSeparator())
	b.WriteString("\n")

	end := min(gv.TopRow+gv.visibleRows(), gv.TotalRows())
	for r := gv.TopRow; r < end; r++ {
		b.WriteString(gv.renderRow(r))
		b.WriteString("\n")
	}
	for r := end - gv.TopRow; r < gv.visibleRows(); r++ {
		b.WriteString("\n")
	}
	b.WriteString(gv.renderStatus())

	return b.String()
}

func (gv *GridView) message(text string) string {
	return lipgloss.NewStyle().
		Foreground(gv.Theme.Metadata).
		Italic(true).
		Width(max(gv.Width, 1)).
		Align(lipgloss.Center).
		Render(text)
}

// visibleColumns returns the columns that fit from LeftCol
func (gv *GridView) visibleColumns() []int {
	var cols []int
	used := 2
	for c := gv.LeftCol; c < len(gv.ColumnWidths); c++ {
		used += gv.ColumnWidths[c] + 3
		if used > gv.Width && len(cols) > 0 {
			break
		}
		cols = append(cols, c)
	}
	return cols
}

func (gv *GridView) renderHeader() string {
	headers := gv.Source.Headers()
	style := lipgloss.NewStyle().Bold(true).Foreground(gv.Theme.TableHeader)
	locked := lipgloss.NewStyle().Bold(true).Foreground(gv.Theme.ImmutableColumn)

	parts := []string{"  "}
	for _, c := range gv.visibleColumns() {
		text := pad(ansi.Truncate(headers[c], gv.ColumnWidths[c], "…"), gv.ColumnWidths[c])
		if gv.Source.IsImmutable(headers[c]) {
			parts = append(parts, locked.Render(text))
		} else {
			parts = append(parts, style.Render(text))
		}
	}
	return strings.Join(parts, " │ ")
}

func (gv *GridView) renderSeparator() string {
	parts := []string{"──"}
	for _, c := range gv.visibleColumns() {
		parts = append(parts, strings.Repeat("─", gv.ColumnWidths[c]))
	}
	return lipgloss.NewStyle().Foreground(gv.Theme.Border).Render(strings.Join(parts, "─┼─"))
}

func (gv *GridView) renderRow(r int) string {
	headers := gv.Source.Headers()
	rows := gv.Source.Rows()
	staged := r >= len(rows)
	cells := gv.rowCells(r)

	gutter := "  "
	if staged {
		gutter = lipgloss.NewStyle().Foreground(gv.Theme.StagedRow).Render("+ ")
	}

	base := lipgloss.NewStyle().Foreground(gv.Theme.Foreground)
	if r%2 == 1 {
		base = base.Background(gv.Theme.TableRowOdd)
	}
	if r == gv.CursorRow {
		base = base.Background(gv.Theme.TableRowSelected)
	}
	if staged {
		base = base.Foreground(gv.Theme.StagedRow)
	}

	parts := []string{gutter}
	for _, c := range gv.visibleColumns() {
		column := headers[c]
		width := gv.ColumnWidths[c]
		cursor := r == gv.CursorRow && c == gv.CursorCol

		var text string
		if cursor && gv.editing {
			text = pad(ansi.Truncate(gv.editorView(width), width, ""), width)
		} else {
			text = pad(ansi.Truncate(displayValue(cells[column]), width, "…"), width)
		}

		style := base
		if !staged {
			style = gv.statusStyle(style, rows[r].DataID, column)
		}
		if gv.Source.IsImmutable(column) {
			style = style.Foreground(gv.Theme.ImmutableColumn)
		}
		if cursor && !gv.editing {
			style = style.Reverse(true)
		}
		parts = append(parts, zone.Mark(CellZoneID(r, c), style.Render(text)))
	}
	return strings.Join(parts, " │ ")
}

func (gv *GridView) editorView(width int) string {
	gv.editor.Width = max(width-1, 1)
	return gv.editor.View()
}

func (gv *GridView) statusStyle(style lipgloss.Style, dataID models.ID, column string) lipgloss.Style {
	switch gv.Source.Status(dataID, column) {
	case models.CellDirty:
		return style.Foreground(gv.Theme.CellDirty)
	case models.CellPending:
		return style.Foreground(gv.Theme.CellPending).Italic(true)
	case models.CellFailed:
		return style.Foreground(gv.Theme.CellFailed).Underline(true)
	}
	return style
}

func (gv *GridView) renderStatus() string {
	src := gv.Source
	var parts []string

	if total := gv.TotalRows(); total > 0 {
		parts = append(parts, fmt.Sprintf("Row %d/%d", gv.CursorRow+1, total))
	} else {
		parts = append(parts, "No rows")
	}
	if n := len(src.Staged()); n > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(gv.Theme.StagedRow).
			Render(fmt.Sprintf("%d new (Ctrl+S to save)", n)))
	}
	if col := gv.CurrentColumn(); col != "" {
		parts = append(parts, col)
	}
	if src.Saving() {
		parts = append(parts, lipgloss.NewStyle().Foreground(gv.Theme.Info).Render("Saving..."))
	}
	if gv.editing {
		parts = append(parts, lipgloss.NewStyle().Foreground(gv.Theme.Warning).Render("EDIT  Enter save · Esc cancel"))
	}

	return lipgloss.NewStyle().Foreground(gv.Theme.Metadata).Render(strings.Join(parts, " · "))
}

// displayValue flattens a cell to a single line
func displayValue(v string) string {
	return strings.ReplaceAll(v, "\n", "↵")
}

func pad(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
