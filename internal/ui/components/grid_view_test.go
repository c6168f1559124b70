package components

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

type fakeSource struct {
	tableID  models.ID
	headers  []string
	rows     []models.Row
	staged   []models.StagedRow
	statuses map[models.CellKey]models.CellStatus
	loading  bool
	loadErr  error
}

func (f *fakeSource) TableID() models.ID          { return f.tableID }
func (f *fakeSource) Headers() []string           { return f.headers }
func (f *fakeSource) Rows() []models.Row          { return f.rows }
func (f *fakeSource) Staged() []models.StagedRow  { return f.staged }
func (f *fakeSource) Loading() bool               { return f.loading }
func (f *fakeSource) LoadErr() error              { return f.loadErr }
func (f *fakeSource) Saving() bool                { return false }
func (f *fakeSource) IsImmutable(col string) bool { return col == "data_id" }
func (f *fakeSource) Status(id models.ID, col string) models.CellStatus {
	return f.statuses[models.CellKey{DataID: id, Column: col}]
}

func newFakeSource() *fakeSource {
	headers := []string{"data_id", "name", "city"}
	return &fakeSource{
		tableID: "T1",
		headers: headers,
		rows: []models.Row{
			{DataID: "1", Cells: map[string]string{"data_id": "1", "name": "alice", "city": "Oslo"}},
			{DataID: "2", Cells: map[string]string{"data_id": "2", "name": "bob", "city": "Rome"}},
		},
		staged:   []models.StagedRow{{Key: "k1", Cells: map[string]string{"data_id": "", "name": "carol", "city": ""}}},
		statuses: map[models.CellKey]models.CellStatus{},
	}
}

func TestGridView_Messages(t *testing.T) {
	src := &fakeSource{}
	gv := NewGridView(src, theme.DefaultTheme())
	gv.Width, gv.Height = 60, 10

	if !strings.Contains(gv.View(), "Select a table") {
		t.Error("expected no-table message")
	}

	src.tableID = "T1"
	src.loading = true
	if !strings.Contains(gv.View(), "Loading") {
		t.Error("expected loading message")
	}

	src.loading = false
	src.loadErr = errors.New("boom")
	if !strings.Contains(gv.View(), "Failed to fetch data") {
		t.Error("expected load error message")
	}
}

func TestGridView_RendersRowsAndStaged(t *testing.T) {
	gv := NewGridView(newFakeSource(), theme.DefaultTheme())
	gv.Width, gv.Height = 80, 10

	view := ansi.Strip(gv.View())
	for _, want := range []string{"name", "city", "alice", "bob", "carol", "+ ", "Row 1/3", "1 new"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestGridView_CursorNavigation(t *testing.T) {
	gv := NewGridView(newFakeSource(), theme.DefaultTheme())
	gv.Width, gv.Height = 80, 10

	gv.MoveCursor(1, 1)
	if gv.CursorRow != 1 || gv.CursorCol != 1 {
		t.Fatalf("expected (1,1), got (%d,%d)", gv.CursorRow, gv.CursorCol)
	}
	if gv.CurrentColumn() != "name" || gv.CellValue(gv.CursorRow, gv.CursorCol) != "bob" {
		t.Errorf("unexpected cell %s=%s", gv.CurrentColumn(), gv.CellValue(gv.CursorRow, gv.CursorCol))
	}

	gv.MoveCursor(10, 10)
	if gv.CursorRow != 2 || gv.CursorCol != 2 {
		t.Errorf("expected clamp to (2,2), got (%d,%d)", gv.CursorRow, gv.CursorCol)
	}
	if !gv.InStaged() || gv.StagedIndex() != 0 {
		t.Error("expected cursor on staged row 0")
	}

	gv.MoveCursor(-10, -10)
	if gv.CursorRow != 0 || gv.CursorCol != 0 {
		t.Errorf("expected clamp to (0,0), got (%d,%d)", gv.CursorRow, gv.CursorCol)
	}
}

func TestGridView_RowValues(t *testing.T) {
	gv := NewGridView(newFakeSource(), theme.DefaultTheme())

	got := gv.RowValues(2)
	want := []string{"", "carol", ""}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if gv.RowValues(5) != nil {
		t.Error("expected nil for out of range row")
	}
}

func TestGridView_ScrollKeepsCursorVisible(t *testing.T) {
	src := newFakeSource()
	src.staged = nil
	for i := 3; i <= 40; i++ {
		id := models.ID(strings.Repeat("x", i%3+1))
		src.rows = append(src.rows, models.Row{DataID: id, Cells: map[string]string{"name": "n"}})
	}
	gv := NewGridView(src, theme.DefaultTheme())
	gv.Width, gv.Height = 80, 10

	gv.PageDown()
	gv.PageDown()
	gv.View()
	if gv.CursorRow < gv.TopRow || gv.CursorRow >= gv.TopRow+gv.visibleRows() {
		t.Errorf("cursor %d outside viewport starting at %d", gv.CursorRow, gv.TopRow)
	}
}

func TestGridView_HorizontalScroll(t *testing.T) {
	src := newFakeSource()
	src.headers = []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	gv := NewGridView(src, theme.DefaultTheme())
	gv.Width, gv.Height = 30, 10

	gv.SetCursor(0, 7)
	gv.View()
	if gv.LeftCol == 0 {
		t.Error("expected viewport to scroll right")
	}
	if !gv.columnFits(7) {
		t.Error("expected cursor column to fit")
	}
}

func TestGridView_Editor(t *testing.T) {
	gv := NewGridView(newFakeSource(), theme.DefaultTheme())
	gv.Width, gv.Height = 80, 10

	gv.StartEditor("alice", false)
	if !gv.Editing() || gv.EditingStaged() {
		t.Fatal("expected persisted editor open")
	}

	_, changed := gv.UpdateEditor(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'!'}})
	if !changed || gv.EditorValue() != "alice!" {
		t.Errorf("expected 'alice!', got %q", gv.EditorValue())
	}
	if !strings.Contains(ansi.Strip(gv.View()), "EDIT") {
		t.Error("expected edit hint in status line")
	}

	gv.StopEditor()
	if gv.Editing() {
		t.Error("expected editor closed")
	}
}

func TestGridView_StatusStyles(t *testing.T) {
	src := newFakeSource()
	src.statuses[models.CellKey{DataID: "1", Column: "name"}] = models.CellFailed
	gv := NewGridView(src, theme.DefaultTheme())
	gv.Width, gv.Height = 80, 10

	// Rendering must not drop the value of a failed cell.
	if !strings.Contains(ansi.Strip(gv.View()), "alice") {
		t.Error("expected failed cell value to stay visible")
	}
}

func TestGridView_DoubleClick(t *testing.T) {
	gv := NewGridView(newFakeSource(), theme.DefaultTheme())
	now := time.Now()

	// Unknown zones never match.
	if _, _, _, ok := gv.HandleClick(tea.MouseMsg{X: 500, Y: 500, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, now); ok {
		t.Error("expected click outside the grid to be ignored")
	}
}
