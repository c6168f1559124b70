package roster

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

// loadPurpose says what a repository list reload was for
type loadPurpose int

const (
	loadInitial loadPurpose = iota
	loadReload
	loadTables
)

type reposLoadedMsg struct {
	Purpose loadPurpose
	Repos   []models.Repository
	Err     error
}

type repoCreatedMsg struct {
	Name string
	Err  error
}

type repoDeletedMsg struct {
	ID  models.ID
	Err error
}

// LoadRepositories fetches the repository list and restores the persisted
// active repository if it still exists
func (r *Roster) LoadRepositories() tea.Cmd {
	return r.list(loadInitial)
}

func (r *Roster) list(purpose loadPurpose) tea.Cmd {
	r.loading = true
	gw := r.gw
	return func() tea.Msg {
		repos, err := gw.ListRepositories(context.Background())
		return reposLoadedMsg{Purpose: purpose, Repos: repos, Err: err}
	}
}

func (r *Roster) handleReposLoaded(msg reposLoadedMsg) tea.Cmd {
	r.loading = false

	if msg.Err != nil {
		r.logger.Error("failed to load repositories", "error", msg.Err)
		r.loadErr = msg.Err
		r.notify.Error("Failed to load repositories.")
		return nil
	}

	r.loadErr = nil
	r.repos = msg.Repos

	repo, ok := r.Repository(r.activeRepo)
	if !ok {
		// The active repository is gone
		hadTable := !r.activeTable.IsZero()
		r.activeRepo = ""
		r.activeTable = ""
		r.tables = nil
		if r.sel != nil {
			r.persist(r.sel.Clear())
		}
		if hadTable || msg.Purpose == loadInitial {
			return changed("")
		}
		return nil
	}

	r.tables = repo.Tables
	if r.sel != nil {
		r.persist(r.sel.SetTables(r.tables))
	}

	if msg.Purpose == loadTables {
		r.notify.Success("Table list updated successfully")
	}

	if _, ok := r.Table(r.activeTable); !ok && !r.activeTable.IsZero() {
		r.activeTable = ""
		if r.sel != nil {
			r.persist(r.sel.SetTable(""))
		}
		return changed("")
	}

	if msg.Purpose == loadInitial {
		return changed(r.activeTable)
	}
	return nil
}

// SelectRepository makes a repository active and clears the active table
func (r *Roster) SelectRepository(id models.ID) tea.Cmd {
	repo, ok := r.Repository(id)
	if !ok {
		return nil
	}

	r.activeRepo = repo.ID
	r.tables = repo.Tables
	r.activeTable = ""
	if r.sel != nil {
		r.persist(r.sel.SetRepository(repo.ID, repo.Tables))
	}
	return changed("")
}

// CreateRepository validates the name locally and creates the repository
func (r *Roster) CreateRepository(name string) tea.Cmd {
	name = strings.TrimSpace(name)
	if name == "" {
		r.notify.Error("Repository name cannot be empty.")
		return nil
	}
	for _, repo := range r.repos {
		if strings.EqualFold(repo.Name, name) {
			r.notify.Error("Repository name already exists.")
			return nil
		}
	}

	gw := r.gw
	return func() tea.Msg {
		err := gw.CreateRepository(context.Background(), name)
		return repoCreatedMsg{Name: name, Err: err}
	}
}

func (r *Roster) handleRepoCreated(msg repoCreatedMsg) tea.Cmd {
	if msg.Err != nil {
		r.logger.Error("failed to create repository", "name", msg.Name, "error", msg.Err)
		r.notify.Error("Failed to add repository.")
		return nil
	}
	r.notify.Success("Repository created")
	return r.list(loadReload)
}

// DeleteRepository deletes a repository with its tables
func (r *Roster) DeleteRepository(id models.ID) tea.Cmd {
	if id.IsZero() {
		return nil
	}
	gw := r.gw
	return func() tea.Msg {
		err := gw.DeleteRepository(context.Background(), id)
		return repoDeletedMsg{ID: id, Err: err}
	}
}

func (r *Roster) handleRepoDeleted(msg repoDeletedMsg) tea.Cmd {
	if msg.Err != nil {
		r.logger.Error("failed to delete repository", "repo_id", msg.ID, "error", msg.Err)
		r.notify.Error("Failed to delete repository.")
		return nil
	}

	r.notify.Success("Deleted successfully")

	var cmds []tea.Cmd
	if msg.ID == r.activeRepo {
		r.activeRepo = ""
		r.activeTable = ""
		r.tables = nil
		if r.sel != nil {
			r.persist(r.sel.Clear())
		}
		cmds = append(cmds, changed(""))
	}
	cmds = append(cmds, r.list(loadReload))
	return tea.Batch(cmds...)
}
