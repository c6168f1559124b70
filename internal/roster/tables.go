package roster

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazytdm/internal/gateway"
	"github.com/rebeliceyang/lazytdm/internal/models"
)

type tableCreatedMsg struct {
	Name   string
	Result gateway.CreateTableResult
	Err    error
}

type tableDeletedMsg struct {
	ID  models.ID
	Err error
}

// SelectTable makes a table of the active repository active
func (r *Roster) SelectTable(id models.ID) tea.Cmd {
	if _, ok := r.Table(id); !ok {
		return nil
	}
	r.activeTable = id
	if r.sel != nil {
		r.persist(r.sel.SetTable(id))
	}
	return changed(id)
}

// ValidateTable checks a table definition locally. It returns the
// user-facing message of the first problem found.
func ValidateTable(name string, columns []string) (string, bool) {
	if strings.TrimSpace(name) == "" || len(columns) == 0 {
		return "Table name and all column fields are required.", false
	}

	seen := make(map[string]bool, len(columns))
	for _, col := range trimmed(columns) {
		if col == "" {
			return "Table name and all column fields are required.", false
		}
		if seen[col] {
			return "Duplicate column names are not allowed.", false
		}
		seen[col] = true
	}
	return "", true
}

// CreateTable validates the definition locally and creates the table in the active repository
func (r *Roster) CreateTable(name string, columns []string) tea.Cmd {
	if r.activeRepo.IsZero() {
		r.notify.Error("No repository selected")
		return nil
	}
	if problem, ok := ValidateTable(name, columns); !ok {
		r.notify.Error(problem)
		return nil
	}

	name = strings.TrimSpace(name)
	cols := trimmed(columns)
	repoID := r.activeRepo
	gw := r.gw
	return func() tea.Msg {
		result, err := gw.CreateTable(context.Background(), repoID, name, cols)
		return tableCreatedMsg{Name: name, Result: result, Err: err}
	}
}

func (r *Roster) handleTableCreated(msg tableCreatedMsg) tea.Cmd {
	switch {
	case msg.Err != nil:
		r.logger.Error("failed to create table", "name", msg.Name, "error", msg.Err)
		r.notify.Error("Table Creation Failed")
		return nil
	case msg.Result.AlreadyExists():
		r.notify.Error("Table already exists")
		return nil
	case !msg.Result.Created:
		r.notify.Error("Table Creation Failed")
		return nil
	}

	r.notify.Success("Table Created Successfully")
	return r.RefreshTables()
}

// DeleteTable deletes a table of the active repository
func (r *Roster) DeleteTable(id models.ID) tea.Cmd {
	if id.IsZero() {
		return nil
	}
	gw := r.gw
	return func() tea.Msg {
		err := gw.DeleteTable(context.Background(), id)
		return tableDeletedMsg{ID: id, Err: err}
	}
}

func (r *Roster) handleTableDeleted(msg tableDeletedMsg) tea.Cmd {
	if msg.Err != nil {
		r.logger.Error("failed to delete table", "table_id", msg.ID, "error", msg.Err)
		r.notify.Error("Table Deletion Failed")
		return nil
	}

	r.notify.Success("Table Deleted Successfully")

	kept := make([]models.Table, 0, len(r.tables))
	for _, t := range r.tables {
		if t.ID != msg.ID {
			kept = append(kept, t)
		}
	}
	r.tables = kept
	for i := range r.repos {
		if r.repos[i].ID == r.activeRepo {
			r.repos[i].Tables = kept
			continue
		}
		r.repos[i].Tables = without(r.repos[i].Tables, msg.ID)
	}
	if r.sel != nil {
		r.persist(r.sel.SetTables(kept))
	}

	if msg.ID != r.activeTable {
		return nil
	}
	r.activeTable = ""
	if r.sel != nil {
		r.persist(r.sel.SetTable(""))
	}
	return changed("")
}

// RefreshTables reloads the repositories and updates the active repository's tables
func (r *Roster) RefreshTables() tea.Cmd {
	return r.list(loadTables)
}

func without(tables []models.Table, id models.ID) []models.Table {
	out := make([]models.Table, 0, len(tables))
	for _, t := range tables {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
