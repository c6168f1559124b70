// Package app wires the roster, the grid and the UI components into the
// bubbletea program of the terminal client.
package app

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazytdm/internal/config"
	"github.com/rebeliceyang/lazytdm/internal/grid"
	"github.com/rebeliceyang/lazytdm/internal/history"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/roster"
	"github.com/rebeliceyang/lazytdm/internal/selection"
	"github.com/rebeliceyang/lazytdm/internal/ui/components"
	"github.com/rebeliceyang/lazytdm/internal/ui/theme"
)

// Gateway is everything the client asks of the remote data gateway
type Gateway interface {
	grid.Gateway
	roster.Gateway
}

// Deps are the collaborators of the App. History and Selection may be nil.
type Deps struct {
	Config    *config.Config
	Gateway   Gateway
	Selection *selection.Manager
	History   *history.Store
	Logger    *slog.Logger

	// Clipboard defaults to the system clipboard
	Clipboard func(string) error
}

// ConfigChangedMsg is sent when the config file was edited while running
type ConfigChangedMsg struct {
	Cfg *config.Config
	Err error
}

// historyLoadedMsg carries the result of an activity log query
type historyLoadedMsg struct {
	Entries []models.Notification
	Err     error
}

// historyRecordedMsg reports a failure to persist notifications
type historyRecordedMsg struct {
	Err error
}

// dialog purposes
const (
	purposeNewRepository    = "new-repository"
	purposeDeleteRepository = "delete-repository"
	purposeDeleteTable      = "delete-table"
)

// historyLimit bounds the entries shown in the activity view
const historyLimit = 200

// App is the main application model
type App struct {
	state     models.Layout
	config    *config.Config
	theme     theme.Theme
	logger    *slog.Logger
	history   *history.Store
	clipboard func(string) error
	now       func() time.Time

	notify *notifier
	roster *roster.Roster
	grid   *grid.Controller

	rosterPanel components.Panel
	gridPanel   components.Panel

	treeView    *components.TreeView
	gridView    *components.GridView
	menu        *components.ContextMenu
	toasts      *components.Toasts
	historyView *components.HistoryView

	showError    bool
	errorOverlay *components.ErrorOverlay

	inputDialog       *components.InputDialog
	confirmDialog     *components.ConfirmDialog
	createTableDialog *components.CreateTableDialog
	importDialog      *components.ImportDialog

	// expanded remembers repositories the user opened in the tree
	expanded map[models.ID]bool
}

// New creates a new App
func New(d Deps) *App {
	cfg := d.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clip := d.Clipboard
	if clip == nil {
		clip = clipboard.WriteAll
	}

	state := models.NewLayout(cfg.UI.PanelWidthRatio)
	th := theme.GetTheme(cfg.UI.Theme)

	a := &App{
		state:     state,
		config:    cfg,
		theme:     th,
		logger:    logger.With("component", "app"),
		history:   d.History,
		clipboard: clip,
		now:       time.Now,
		expanded:  make(map[models.ID]bool),
	}

	a.notify = newNotifier(func() models.ID { return a.grid.TableID() })

	// A nil *selection.Manager must not become a non-nil interface
	var sel roster.Selection
	if d.Selection != nil {
		sel = d.Selection
	}
	a.roster = roster.New(d.Gateway, a.notify, sel, logger)
	a.grid = grid.NewController(d.Gateway, a.notify, a.gridOptions(cfg))

	root := models.BuildRosterTree(nil, "", "")
	a.treeView = components.NewTreeView(root, th)
	a.gridView = components.NewGridView(a.grid, th)
	a.gridView.MaxCellWidth = cfg.Grid.MaxCellDisplayLength
	a.menu = components.NewContextMenu(th)
	a.toasts = components.NewToasts(th)
	a.toasts.Duration = toastDuration(cfg)
	a.historyView = components.NewHistoryView(th)
	a.errorOverlay = components.NewErrorOverlay(th)
	a.rosterPanel = components.Panel{Title: "Repositories"}
	a.gridPanel = components.Panel{Title: "Data"}

	a.updatePanelDimensions()
	a.updatePanelStyles()
	return a
}

func (a *App) gridOptions(cfg *config.Config) grid.Options {
	return grid.Options{
		ImmutableColumns: cfg.Grid.ImmutableColumns,
		SaveConcurrency:  cfg.Grid.SaveConcurrency,
		DownloadDir:      cfg.Data.DownloadDir,
		Logger:           a.logger,
	}
}

func toastDuration(cfg *config.Config) time.Duration {
	if cfg.UI.ToastDurationMS <= 0 {
		return components.DefaultToastDuration
	}
	return time.Duration(cfg.UI.ToastDurationMS) * time.Millisecond
}

// Init implements tea.Model. The first repository load restores the
// persisted selection and loads its table.
func (a *App) Init() tea.Cmd {
	return a.roster.LoadRepositories()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	return a, tea.Batch(cmd, a.flushNotifications())
}

func (a *App) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
		return nil

	case ConfigChangedMsg:
		if msg.Err != nil {
			a.logger.Warn("failed to reload config", "error", msg.Err)
			a.notify.Error("Failed to reload config")
			return nil
		}
		a.applyConfig(msg.Cfg)
		return nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case components.TreeNodeSelectedMsg:
		commit := a.leaveEditor()
		return tea.Batch(commit, a.selectNode(msg.Node))

	case components.TreeNodeExpandedMsg:
		if msg.Node != nil && msg.Node.Type == models.TreeNodeTypeRepository {
			a.expanded[msg.Node.RepositoryID()] = msg.Expanded
		}
		return nil

	case roster.ActiveTableChangedMsg:
		a.gridView.StopEditor()
		a.gridView.Reset()
		a.menu.Close()
		a.syncTree()
		return a.grid.Load(msg.TableID)

	case components.ToastExpiredMsg:
		a.toasts.Expire(msg.ID)
		return nil

	case components.InputSubmittedMsg:
		a.inputDialog = nil
		if msg.Purpose == purposeNewRepository {
			return a.roster.CreateRepository(msg.Value)
		}
		return nil

	case components.ConfirmedMsg:
		a.confirmDialog = nil
		return a.confirmed(msg)

	case components.CreateTableMsg:
		return a.createTable(msg)

	case components.ImportFileMsg:
		a.importDialog = nil
		return a.grid.Import(msg.Path)

	case components.CloseDialogMsg:
		a.closeDialogs()
		return nil

	case components.HistorySearchMsg:
		return a.loadHistory(msg.Query)

	case historyLoadedMsg:
		if msg.Err != nil {
			a.logger.Error("failed to read activity log", "error", msg.Err)
			a.notify.Error("Failed to load activity history")
			return nil
		}
		a.historyView.SetEntries(msg.Entries)
		return nil

	case historyRecordedMsg:
		if msg.Err != nil {
			a.logger.Warn("failed to record activity", "error", msg.Err)
		}
		return nil

	case components.CloseHistoryMsg:
		a.state.ViewMode = models.NormalMode
		return nil
	}

	if roster.Handles(msg) {
		hadRepos := len(a.roster.Repositories()) > 0
		cmd := a.roster.Update(msg)
		a.syncTree()
		if err := a.roster.LoadErr(); err != nil && !hadRepos {
			a.ShowError("Gateway Unreachable", fmt.Sprintf(
				"Could not load repositories from %s.\n\n%v\n\nPress r to retry once dismissed.",
				a.config.Gateway.BaseURL, err))
		}
		return cmd
	}
	if grid.Handles(msg) {
		cmd := a.grid.Update(msg)
		a.syncGrid()
		return cmd
	}

	// The file picker reads directories asynchronously
	if a.importDialog != nil {
		var cmd tea.Cmd
		a.importDialog, cmd = a.importDialog.Update(msg)
		return cmd
	}
	return nil
}

// applyConfig applies a reloaded configuration
func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.config = cfg
	a.grid.SetOptions(a.gridOptions(cfg))
	a.gridView.MaxCellWidth = cfg.Grid.MaxCellDisplayLength
	a.toasts.Duration = toastDuration(cfg)
	if cfg.UI.PanelWidthRatio > 0 && cfg.UI.PanelWidthRatio < 100 {
		a.state.RosterRatio = cfg.UI.PanelWidthRatio
	}
	if !slices.Contains(theme.Names(), cfg.UI.Theme) {
		a.notify.Error(fmt.Sprintf("Unknown theme %q, using %s", cfg.UI.Theme, theme.DefaultTheme().Name))
	}
	a.setTheme(theme.GetTheme(cfg.UI.Theme))
	a.updatePanelDimensions()
	a.logger.Info("config reloaded", "theme", a.theme.Name)
}

func (a *App) setTheme(th theme.Theme) {
	a.theme = th
	a.treeView.Theme = th
	a.gridView.SetTheme(th)
	a.menu.Theme = th
	a.toasts.Theme = th
	a.historyView.Theme = th
	a.errorOverlay.Theme = th
	a.updatePanelStyles()
}

// flushNotifications shows the notifications raised by the last message and
// records them in the activity log
func (a *App) flushNotifications() tea.Cmd {
	pending := a.notify.drain()
	if len(pending) == 0 {
		return nil
	}

	cmds := make([]tea.Cmd, 0, len(pending)+1)
	for _, n := range pending {
		cmds = append(cmds, a.toasts.Push(n))
	}
	if a.history != nil && a.config.History.Enabled {
		store := a.history
		cmds = append(cmds, func() tea.Msg {
			for _, n := range pending {
				if err := store.Add(n); err != nil {
					return historyRecordedMsg{Err: err}
				}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// loadHistory queries the activity log; an empty query lists the newest entries
func (a *App) loadHistory(query string) tea.Cmd {
	if a.history == nil {
		a.historyView.SetEntries(nil)
		return nil
	}
	store := a.history
	return func() tea.Msg {
		var (
			entries []history.Entry
			err     error
		)
		if query == "" {
			entries, err = store.GetRecent(historyLimit)
		} else {
			entries, err = store.Search(query, historyLimit)
		}
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		out := make([]models.Notification, len(entries))
		for i, e := range entries {
			out[i] = models.Notification{Kind: e.Kind, Message: e.Message, TableID: e.TableID, At: e.CreatedAt}
		}
		return historyLoadedMsg{Entries: out}
	}
}

// syncTree rebuilds the roster tree, keeping repositories the user expanded open
func (a *App) syncTree() {
	root := models.BuildRosterTree(a.roster.Repositories(), a.roster.ActiveRepository(), a.roster.ActiveTable())
	for _, node := range root.Children {
		if a.expanded[node.RepositoryID()] {
			node.Expanded = true
		}
	}
	a.treeView.SetRoot(root)
}

// syncGrid keeps the view consistent with the controller after a snapshot
// or a save result
func (a *App) syncGrid() {
	if a.gridView.Editing() && !a.gridView.EditingStaged() {
		row, column, ok := a.grid.Editing()
		if !ok {
			a.gridView.StopEditor()
		} else {
			// The row may have moved in the new snapshot
			for c, h := range a.grid.Headers() {
				if h == column {
					a.gridView.SetCursor(row, c)
					break
				}
			}
		}
	}
	if a.gridView.EditingStaged() && !a.gridView.InStaged() {
		a.gridView.StopEditor()
	}
	if _, ok := a.grid.Menu(); !ok {
		a.menu.Close()
	}
	a.gridView.Clamp()
}

// selectNode makes the repository or table under node active
func (a *App) selectNode(node *models.TreeNode) tea.Cmd {
	if node == nil {
		return nil
	}

	switch node.Type {
	case models.TreeNodeTypeRepository:
		repoID := node.RepositoryID()
		a.expanded[repoID] = true
		if repoID == a.roster.ActiveRepository() {
			a.syncTree()
			return nil
		}
		return a.roster.SelectRepository(repoID)

	case models.TreeNodeTypeTable:
		repoID := node.RepositoryID()
		tableID := node.RefID
		a.state.FocusedPanel = models.GridPanel
		a.updatePanelStyles()
		if tableID == a.roster.ActiveTable() && repoID == a.roster.ActiveRepository() {
			return nil
		}
		if repoID != a.roster.ActiveRepository() {
			// The table message supersedes the repository's clear
			_ = a.roster.SelectRepository(repoID)
		}
		a.expanded[repoID] = true
		return a.roster.SelectTable(tableID)
	}
	return nil
}

func (a *App) confirmed(msg components.ConfirmedMsg) tea.Cmd {
	switch msg.Purpose {
	case purposeDeleteRepository:
		delete(a.expanded, msg.Target)
		return a.roster.DeleteRepository(msg.Target)
	case purposeDeleteTable:
		return a.roster.DeleteTable(msg.Target)
	}
	return nil
}

func (a *App) createTable(msg components.CreateTableMsg) tea.Cmd {
	var selectCmd tea.Cmd
	if msg.RepositoryID != a.roster.ActiveRepository() {
		selectCmd = a.roster.SelectRepository(msg.RepositoryID)
		a.syncTree()
	}

	if problem, ok := roster.ValidateTable(msg.Name, msg.Columns); !ok {
		if a.createTableDialog != nil {
			a.createTableDialog.ErrorText = problem
		}
		// The roster reports the validation failure
		return tea.Batch(selectCmd, a.roster.CreateTable(msg.Name, msg.Columns))
	}

	a.createTableDialog = nil
	return tea.Batch(selectCmd, a.roster.CreateTable(msg.Name, msg.Columns))
}

func (a *App) closeDialogs() {
	a.inputDialog = nil
	a.confirmDialog = nil
	a.createTableDialog = nil
	a.importDialog = nil
}

func (a *App) dialogOpen() bool {
	return a.inputDialog != nil || a.confirmDialog != nil ||
		a.createTableDialog != nil || a.importDialog != nil
}

// ShowError displays an error overlay with the given title and message
func (a *App) ShowError(title, message string) {
	a.errorOverlay.SetError(title, message)
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
}

// updatePanelStyles updates panel styling based on focus
func (a *App) updatePanelStyles() {
	if a.state.FocusedPanel == models.RosterPanel {
		a.rosterPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.BorderFocused)
		a.gridPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.Border)
	} else {
		a.rosterPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.Border)
		a.gridPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.BorderFocused)
	}
}
