// Package roster manages the repository list and the tables of the active repository.
package roster

import (
	"context"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/gateway"
	"github.com/rebeliceyang/lazytdm/internal/models"
	"github.com/rebeliceyang/lazytdm/internal/selection"
)

// Gateway is the subset of the remote data gateway the roster needs
type Gateway interface {
	ListRepositories(ctx context.Context) ([]models.Repository, error)
	CreateRepository(ctx context.Context, name string) error
	DeleteRepository(ctx context.Context, id models.ID) error
	CreateTable(ctx context.Context, repoID models.ID, name string, columns []string) (gateway.CreateTableResult, error)
	DeleteTable(ctx context.Context, id models.ID) error
}

// Notifier receives user-visible outcomes
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Selection persists what is selected between sessions
type Selection interface {
	State() selection.State
	SetRepository(id models.ID, tables []models.Table) error
	SetTable(id models.ID) error
	SetTables(tables []models.Table) error
	Clear() error
}

// ActiveTableChangedMsg tells the grid which table to show. An empty id clears it.
type ActiveTableChangedMsg struct {
	TableID models.ID
}

// Roster holds the repositories and the current selection
type Roster struct {
	gw     Gateway
	notify Notifier
	sel    Selection
	logger *slog.Logger

	repos       []models.Repository
	activeRepo  models.ID
	activeTable models.ID
	tables      []models.Table

	loading bool
	loadErr error
}

// New creates a roster. The persisted selection is restored on the first load.
func New(gw Gateway, notify Notifier, sel Selection, logger *slog.Logger) *Roster {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Roster{
		gw:     gw,
		notify: notify,
		sel:    sel,
		logger: logger.With("component", "roster"),
	}
	if sel != nil {
		state := sel.State()
		r.activeRepo = state.ActiveRepository
		r.activeTable = state.ActiveTable
		for _, t := range state.Tables {
			r.tables = append(r.tables, models.Table{ID: t.ID, Name: t.Name, RepositoryID: state.ActiveRepository})
		}
	}
	return r
}

// Repositories returns the known repositories
func (r *Roster) Repositories() []models.Repository { return r.repos }

// ActiveRepository returns the active repository id
func (r *Roster) ActiveRepository() models.ID { return r.activeRepo }

// ActiveTable returns the active table id
func (r *Roster) ActiveTable() models.ID { return r.activeTable }

// Tables returns the tables of the active repository
func (r *Roster) Tables() []models.Table { return r.tables }

// Loading reports whether the repository list is being fetched
func (r *Roster) Loading() bool { return r.loading }

// LoadErr returns the error of the last failed repository fetch
func (r *Roster) LoadErr() error { return r.loadErr }

// Repository returns a known repository by id
func (r *Roster) Repository(id models.ID) (models.Repository, bool) {
	for _, repo := range r.repos {
		if repo.ID == id {
			return repo, true
		}
	}
	return models.Repository{}, false
}

// Table returns a table of the active repository by id
func (r *Roster) Table(id models.ID) (models.Table, bool) {
	for _, t := range r.tables {
		if t.ID == id {
			return t, true
		}
	}
	return models.Table{}, false
}

// Update applies the result of an asynchronous roster operation
func (r *Roster) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case reposLoadedMsg:
		return r.handleReposLoaded(msg)
	case repoCreatedMsg:
		return r.handleRepoCreated(msg)
	case repoDeletedMsg:
		return r.handleRepoDeleted(msg)
	case tableCreatedMsg:
		return r.handleTableCreated(msg)
	case tableDeletedMsg:
		return r.handleTableDeleted(msg)
	}
	return nil
}

// Handles reports whether msg is a roster result message
func Handles(msg tea.Msg) bool {
	switch msg.(type) {
	case reposLoadedMsg, repoCreatedMsg, repoDeletedMsg, tableCreatedMsg, tableDeletedMsg:
		return true
	}
	return false
}

func changed(id models.ID) tea.Cmd {
	return func() tea.Msg { return ActiveTableChangedMsg{TableID: id} }
}

func (r *Roster) persist(err error) {
	if err != nil {
		r.logger.Warn("failed to persist selection", "error", err)
	}
}

func trimmed(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
