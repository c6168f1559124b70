package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazytdm/internal/config"
	"github.com/rebeliceyang/lazytdm/internal/gateway"
	"github.com/rebeliceyang/lazytdm/internal/history"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/selection"
	"github.com/rebeliceyang/lazytdm/internal/ui/components"
)

func init() {
	zone.NewGlobal()
}

type fakeGateway struct {
	mu sync.Mutex

	repos   []models.Repository
	listErr error
	headers []string
	rows    []models.Row

	updates     []map[string]string
	creates     []map[string]string
	deletedRows []models.ID
	deletedRepo []models.ID
	newTables   []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		repos: []models.Repository{
			{ID: "1", Name: "qa", Tables: []models.Table{{ID: "10", Name: "users"}, {ID: "11", Name: "orders"}}},
			{ID: "2", Name: "staging"},
		},
		headers: []string{"data_id", "name"},
		rows: []models.Row{
			{DataID: "r1", Cells: map[string]string{"data_id": "r1", "name": "alice"}},
			{DataID: "r2", Cells: map[string]string{"data_id": "r2", "name": "bob"}},
		},
	}
}

func (f *fakeGateway) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Repository(nil), f.repos...), nil
}

func (f *fakeGateway) CreateRepository(ctx context.Context, name string) error {
	return nil
}

func (f *fakeGateway) DeleteRepository(ctx context.Context, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedRepo = append(f.deletedRepo, id)
	return nil
}

func (f *fakeGateway) CreateTable(ctx context.Context, repoID models.ID, name string, columns []string) (gateway.CreateTableResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newTables = append(f.newTables, name)
	return gateway.CreateTableResult{Created: true}, nil
}

func (f *fakeGateway) DeleteTable(ctx context.Context, id models.ID) error {
	return nil
}

func (f *fakeGateway) FetchTableData(ctx context.Context, tableID models.ID) (*models.TableData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]models.Row, len(f.rows))
	for i, r := range f.rows {
		rows[i] = r.Clone()
	}
	return &models.TableData{Headers: append([]string(nil), f.headers...), Rows: rows}, nil
}

func (f *fakeGateway) UpdateRow(ctx context.Context, dataID models.ID, cells map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, cells)
	return nil
}

func (f *fakeGateway) CreateRow(ctx context.Context, tableID models.ID, cells map[string]string) (models.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, cells)
	return "r9", nil
}

func (f *fakeGateway) DeleteRow(ctx context.Context, dataID models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedRows = append(f.deletedRows, dataID)
	return nil
}

func (f *fakeGateway) UploadFile(ctx context.Context, tableID models.ID, path string) error {
	return errors.New("not supported")
}

func (f *fakeGateway) ExportTable(ctx context.Context, tableID models.ID) ([]byte, error) {
	return []byte("xlsx"), nil
}

type harness struct {
	app     *App
	gw      *fakeGateway
	clipped []string
}

func newHarness(t *testing.T, mutate func(*Deps)) *harness {
	t.Helper()

	cfg := config.GetDefaults()
	// Long enough that toasts never expire while a test runs
	cfg.UI.ToastDurationMS = 60_000
	cfg.Data.DownloadDir = t.TempDir()

	h := &harness{gw: newFakeGateway()}
	d := Deps{
		Config:  cfg,
		Gateway: h.gw,
		Clipboard: func(s string) error {
			h.clipped = append(h.clipped, s)
			return nil
		},
	}
	if mutate != nil {
		mutate(&d)
	}
	h.app = New(d)
	h.app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// execute runs a command, giving up on commands that wait on timers
func execute(cmd tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// run feeds cmd and everything it produces back into the app
func (h *harness) run(cmd tea.Cmd) []tea.Msg {
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := execute(c)
		switch m := msg.(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, m...)
		default:
			seen = append(seen, m)
			_, next := h.app.Update(m)
			queue = append(queue, next)
		}
	}
	return seen
}

func (h *harness) send(msg tea.Msg) []tea.Msg {
	_, cmd := h.app.Update(msg)
	return h.run(cmd)
}

func (h *harness) key(s string) []tea.Msg {
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	return h.send(msg)
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.key(string(r))
	}
}

// openTable selects a table through the roster tree
func (h *harness) openTable(t *testing.T, repoID, tableID models.ID) {
	t.Helper()
	h.run(h.app.Init())
	node := h.app.treeView.Root.FindByID(models.TableNodeID(repoID, tableID))
	require.NotNil(t, node)
	h.send(components.TreeNodeSelectedMsg{Node: node})
	require.Equal(t, tableID, h.app.grid.TableID())
	require.Len(t, h.app.grid.Rows(), 2)
}

// click renders the screen and presses the left button on the zone with the given id
func (h *harness) click(t *testing.T, id string) []tea.Msg {
	t.Helper()
	h.app.View()

	var z *zone.ZoneInfo
	require.Eventually(t, func() bool {
		z = zone.Get(id)
		return !z.IsZero()
	}, time.Second, 5*time.Millisecond, "zone %s was not rendered", id)

	return h.send(tea.MouseMsg{X: z.StartX, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
}

// editName opens the editor on alice's name and appends "x"
func (h *harness) editName(t *testing.T) {
	t.Helper()
	h.key("right")
	h.key("enter")
	require.True(t, h.app.gridView.Editing())
	h.typeText("x")
	require.Equal(t, models.CellDirty, h.app.grid.Status("r1", "name"))
}

func containsMsg(msgs []tea.Msg, match func(tea.Msg) bool) bool {
	for _, m := range msgs {
		if match(m) {
			return true
		}
	}
	return false
}

func TestInitRestoresPersistedSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	sel, err := selection.NewManager(path)
	require.NoError(t, err)
	require.NoError(t, sel.SetRepository("1", nil))
	require.NoError(t, sel.SetTable("11"))

	h := newHarness(t, func(d *Deps) { d.Selection = sel })
	h.run(h.app.Init())

	assert.Equal(t, models.ID("1"), h.app.roster.ActiveRepository())
	assert.Equal(t, models.ID("11"), h.app.grid.TableID())
	assert.Len(t, h.app.grid.Rows(), 2)

	node := h.app.treeView.Root.FindByID(models.TableNodeID("1", "11"))
	require.NotNil(t, node)
	assert.True(t, node.Active)
}

func TestUnreachableGatewayShowsErrorOverlay(t *testing.T) {
	h := newHarness(t, nil)
	h.gw.listErr = errors.New("connection refused")
	h.run(h.app.Init())

	require.True(t, h.app.showError)
	assert.Contains(t, h.app.View(), "Gateway Unreachable")

	h.key("r")
	assert.True(t, h.app.showError, "keys other than enter and esc are swallowed")

	h.key("enter")
	assert.False(t, h.app.showError)

	h.gw.mu.Lock()
	h.gw.listErr = nil
	h.gw.mu.Unlock()
	h.key("r")
	assert.Len(t, h.app.roster.Repositories(), 2)
	assert.False(t, h.app.showError)
}

func TestSelectingTableFocusesGrid(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	assert.Equal(t, models.GridPanel, h.app.state.FocusedPanel)
	assert.Equal(t, models.ID("1"), h.app.roster.ActiveRepository())
	assert.Contains(t, h.app.location(), "users")
}

func TestSelectingTableInOtherRepositorySwitchesRepository(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	h.gw.mu.Lock()
	h.gw.repos[1].Tables = []models.Table{{ID: "20", Name: "events"}}
	h.gw.mu.Unlock()
	h.key("tab")
	h.key("r")

	require.NotNil(t, h.app.treeView.Root.FindByID(models.TableNodeID("2", "20")))
	h.send(components.TreeNodeSelectedMsg{Node: h.app.treeView.Root.FindByID(models.TableNodeID("2", "20"))})

	assert.Equal(t, models.ID("2"), h.app.roster.ActiveRepository())
	assert.Equal(t, models.ID("20"), h.app.grid.TableID())
}

func TestEditCellCommitsOnEnter(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	h.key("right")
	h.key("enter")
	require.True(t, h.app.gridView.Editing())

	h.typeText("x")
	assert.Equal(t, models.CellDirty, h.app.grid.Status("r1", "name"))

	h.key("enter")
	assert.False(t, h.app.gridView.Editing())
	require.Len(t, h.gw.updates, 1)
	assert.Equal(t, map[string]string{"name": "alicex"}, h.gw.updates[0])
}

func TestClickingAnotherCellCommitsEdit(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")
	h.editName(t)

	h.click(t, components.CellZoneID(1, 1))

	assert.False(t, h.app.gridView.Editing())
	assert.Equal(t, 1, h.app.gridView.CursorRow)
	require.Len(t, h.gw.updates, 1)
	assert.Equal(t, map[string]string{"name": "alicex"}, h.gw.updates[0])
}

func TestClickingOtherTableCommitsEditFirst(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")
	h.editName(t)

	h.click(t, components.ZoneRosterNodePrefix+models.TableNodeID("1", "11"))

	assert.Equal(t, models.ID("11"), h.app.grid.TableID())
	assert.False(t, h.app.gridView.Editing())
	require.Len(t, h.gw.updates, 1)
	assert.Equal(t, map[string]string{"name": "alicex"}, h.gw.updates[0])
}

func TestSelectingTableFromTreeCommitsEdit(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")
	h.editName(t)

	node := h.app.treeView.Root.FindByID(models.TableNodeID("1", "11"))
	require.NotNil(t, node)
	h.send(components.TreeNodeSelectedMsg{Node: node})

	assert.Equal(t, models.ID("11"), h.app.grid.TableID())
	require.Len(t, h.gw.updates, 1)
	assert.Equal(t, map[string]string{"name": "alicex"}, h.gw.updates[0])
}

func TestClickingActiveRepositoryClosesEditor(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")
	h.editName(t)

	h.click(t, components.ZoneRosterNodePrefix+models.RepositoryNodeID("1"))

	assert.Equal(t, models.RosterPanel, h.app.state.FocusedPanel)
	assert.False(t, h.app.gridView.Editing())
	assert.Equal(t, models.ID("10"), h.app.grid.TableID())
	require.Len(t, h.gw.updates, 1)
	assert.Equal(t, map[string]string{"name": "alicex"}, h.gw.updates[0])
}

func TestEscCancelsEdit(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	h.key("right")
	h.key("e")
	h.typeText("zz")
	h.key("esc")

	assert.False(t, h.app.gridView.Editing())
	assert.Equal(t, "alice", h.app.grid.Rows()[0].Value("name"))
	assert.Equal(t, models.CellClean, h.app.grid.Status("r1", "name"))
	assert.Empty(t, h.gw.updates)
}

func TestImmutableColumnDoesNotOpenEditor(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	h.key("enter")
	assert.False(t, h.app.gridView.Editing())
}

func TestAddAndSaveStagedRow(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	h.key("a")
	require.Len(t, h.app.grid.Staged(), 1)
	assert.True(t, h.app.gridView.InStaged())
	assert.Equal(t, 1, h.app.gridView.CursorCol)

	h.key("enter")
	require.True(t, h.app.gridView.EditingStaged())
	h.typeText("carol")
	h.key("enter")
	assert.Equal(t, "carol", h.app.grid.Staged()[0].Cells["name"])

	h.key("ctrl+s")
	require.Len(t, h.gw.creates, 1)
	assert.Equal(t, "carol", h.gw.creates[0]["name"])
	assert.NotContains(t, h.gw.creates[0], "data_id")
	assert.Empty(t, h.app.grid.Staged())
}

func TestDeleteRowThroughMenu(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	h.key("down")
	h.key("m")
	require.True(t, h.app.menu.Visible)

	h.key("d")
	assert.False(t, h.app.menu.Visible)
	assert.Equal(t, []models.ID{"r2"}, h.gw.deletedRows)
}

func TestMenuCancelKeepsRow(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	h.key("m")
	h.key("esc")

	assert.False(t, h.app.menu.Visible)
	_, open := h.app.grid.Menu()
	assert.False(t, open)
	assert.Empty(t, h.gw.deletedRows)
}

func TestCopyRowToClipboard(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	h.key("Y")
	require.Len(t, h.clipped, 1)
	assert.Equal(t, "r1\talice", h.clipped[0])
	assert.Contains(t, h.app.toasts.Messages(), "Row copied")
}

func TestNotificationsAreRecorded(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), 100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := newHarness(t, func(d *Deps) { d.History = store })
	h.openTable(t, "1", "10")
	h.key("y")

	entries, err := store.Search("copied", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.NotificationSuccess, entries[0].Kind)
	assert.Equal(t, models.ID("10"), entries[0].TableID)

	h.key("H")
	assert.Equal(t, models.HistoryMode, h.app.state.ViewMode)
	require.NotEmpty(t, h.app.historyView.Entries)

	h.key("H")
	assert.Equal(t, models.NormalMode, h.app.state.ViewMode)
}

func TestDeleteRepositoryAsksFirst(t *testing.T) {
	h := newHarness(t, nil)
	h.run(h.app.Init())

	require.Equal(t, models.RosterPanel, h.app.state.FocusedPanel)
	require.True(t, h.app.treeView.SetCursorToNode(models.RepositoryNodeID("2")))

	h.key("d")
	require.NotNil(t, h.app.confirmDialog)
	assert.Empty(t, h.gw.deletedRepo)

	h.key("y")
	assert.Nil(t, h.app.confirmDialog)
	assert.Equal(t, []models.ID{"2"}, h.gw.deletedRepo)
}

func TestDeleteWithoutConfirmation(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Config.General.ConfirmDestructiveOps = false })
	h.run(h.app.Init())
	require.True(t, h.app.treeView.SetCursorToNode(models.RepositoryNodeID("2")))

	h.key("d")
	assert.Nil(t, h.app.confirmDialog)
	assert.Equal(t, []models.ID{"2"}, h.gw.deletedRepo)
}

func TestCreateTableDialogStaysOpenOnInvalidInput(t *testing.T) {
	h := newHarness(t, nil)
	h.run(h.app.Init())
	require.True(t, h.app.treeView.SetCursorToNode(models.RepositoryNodeID("1")))

	h.key("t")
	require.NotNil(t, h.app.createTableDialog)

	h.send(components.CreateTableMsg{RepositoryID: "1", Name: "t", Columns: []string{"a", " a "}})
	require.NotNil(t, h.app.createTableDialog)
	assert.Equal(t, "Duplicate column names are not allowed.", h.app.createTableDialog.ErrorText)
	assert.Empty(t, h.gw.newTables)

	h.send(components.CreateTableMsg{RepositoryID: "1", Name: "t", Columns: []string{"a", "b"}})
	assert.Nil(t, h.app.createTableDialog)
	assert.Equal(t, []string{"t"}, h.gw.newTables)
}

func TestSnapshotWritesToDownloadDir(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")
	h.app.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	h.key("E")
	matches, err := filepath.Glob(filepath.Join(h.app.config.Data.DownloadDir, "10-20260102-030405.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestConfigReloadAppliesTheme(t *testing.T) {
	h := newHarness(t, nil)

	cfg := config.GetDefaults()
	cfg.UI.Theme = "catppuccin-mocha"
	cfg.UI.ToastDurationMS = 1500
	h.send(ConfigChangedMsg{Cfg: cfg})

	assert.Equal(t, "catppuccin-mocha", h.app.theme.Name)
	assert.Equal(t, "catppuccin-mocha", h.app.gridView.Theme.Name)
	assert.Equal(t, 1500*time.Millisecond, h.app.toasts.Duration)
	assert.Empty(t, h.app.toasts.Messages())
}

func TestConfigReloadWarnsAboutUnknownTheme(t *testing.T) {
	h := newHarness(t, nil)

	cfg := config.GetDefaults()
	cfg.UI.Theme = "solarized"
	h.send(ConfigChangedMsg{Cfg: cfg})

	assert.Equal(t, "default", h.app.theme.Name)
	assert.Contains(t, h.app.toasts.Messages(), `Unknown theme "solarized", using default`)
}

func TestConfigReloadErrorIsReported(t *testing.T) {
	h := newHarness(t, nil)
	h.send(ConfigChangedMsg{Err: errors.New("bad yaml")})

	assert.Equal(t, "default", h.app.theme.Name)
	assert.Contains(t, h.app.toasts.Messages(), "Failed to reload config")
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t, nil)
	_, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	msgs := h.run(cmd)
	assert.True(t, containsMsg(msgs, func(m tea.Msg) bool {
		_, ok := m.(tea.QuitMsg)
		return ok
	}))
}

func TestHelpToggle(t *testing.T) {
	h := newHarness(t, nil)
	h.key("?")
	assert.Equal(t, models.HelpMode, h.app.state.ViewMode)
	assert.Contains(t, h.app.View(), "Activity history")
	h.key("esc")
	assert.Equal(t, models.NormalMode, h.app.state.ViewMode)
}

func TestViewShowsRosterAndGrid(t *testing.T) {
	h := newHarness(t, nil)
	h.openTable(t, "1", "10")

	view := h.app.View()
	assert.Contains(t, view, "qa")
	assert.Contains(t, view, "alice")
	assert.Contains(t, view, "lazytdm")
	assert.Equal(t, "qa › users", h.app.location())
	assert.LessOrEqual(t, len(strings.Split(view, "\n")), 40)
}
