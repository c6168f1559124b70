package server

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

// MemoryStore implements Store in process memory.
// It is the default store and the one the tests run against.
type MemoryStore struct {
	mu     sync.RWMutex
	repos  []*memRepo
	tables map[models.ID]*memTable
	rowOf  map[models.ID]models.ID // data id -> table id
}

type memRepo struct {
	id     models.ID
	name   string
	tables []models.ID
}

type memTable struct {
	id      models.ID
	repoID  models.ID
	name    string
	columns []string
	rows    []StoredRow
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[models.ID]*memTable),
		rowOf:  make(map[models.ID]models.ID),
	}
}

func newID() models.ID {
	return models.ID(uuid.NewString())
}

func (s *MemoryStore) ListRepositories(_ context.Context) ([]models.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Repository, 0, len(s.repos))
	for _, r := range s.repos {
		repo := models.Repository{ID: r.id, Name: r.name, Tables: []models.Table{}}
		for _, tid := range r.tables {
			t := s.tables[tid]
			repo.Tables = append(repo.Tables, models.Table{ID: t.id, Name: t.name, RepositoryID: r.id})
		}
		out = append(out, repo)
	}
	return out, nil
}

func (s *MemoryStore) CreateRepository(_ context.Context, name string) (models.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.repos {
		if strings.EqualFold(r.name, name) {
			return models.Repository{}, ErrRepositoryExists
		}
	}
	r := &memRepo{id: newID(), name: name}
	s.repos = append(s.repos, r)
	return models.Repository{ID: r.id, Name: r.name, Tables: []models.Table{}}, nil
}

func (s *MemoryStore) DeleteRepository(_ context.Context, id models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.repos {
		if r.id != id {
			continue
		}
		for _, tid := range r.tables {
			s.dropTable(tid)
		}
		s.repos = append(s.repos[:i], s.repos[i+1:]...)
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateTable(_ context.Context, repoID models.ID, name string, columns []string) (models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.repo(repoID)
	if repo == nil {
		return models.Table{}, ErrNotFound
	}
	for _, tid := range repo.tables {
		if s.tables[tid].name == name {
			return models.Table{}, ErrTableExists
		}
	}

	t := &memTable{id: newID(), repoID: repoID, name: name, columns: append([]string(nil), columns...)}
	s.tables[t.id] = t
	repo.tables = append(repo.tables, t.id)
	return models.Table{ID: t.id, Name: t.name, RepositoryID: repoID}, nil
}

func (s *MemoryStore) DeleteTable(_ context.Context, id models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[id]
	if !ok {
		return ErrNotFound
	}
	if repo := s.repo(t.repoID); repo != nil {
		for i, tid := range repo.tables {
			if tid == id {
				repo.tables = append(repo.tables[:i], repo.tables[i+1:]...)
				break
			}
		}
	}
	s.dropTable(id)
	return nil
}

func (s *MemoryStore) TableColumns(_ context.Context, tableID models.ID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[tableID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), t.columns...), nil
}

func (s *MemoryStore) ListRows(_ context.Context, tableID models.ID) ([]StoredRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[tableID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]StoredRow, len(t.rows))
	for i, r := range t.rows {
		out[i] = StoredRow{DataID: r.DataID, Content: copyCells(r.Content)}
	}
	return out, nil
}

func (s *MemoryStore) InsertRows(_ context.Context, tableID models.ID, rows []map[string]string) ([]models.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[tableID]
	if !ok {
		return nil, ErrNotFound
	}
	ids := make([]models.ID, len(rows))
	for i, cells := range rows {
		ids[i] = newID()
		t.rows = append(t.rows, StoredRow{DataID: ids[i], Content: copyCells(cells)})
		s.rowOf[ids[i]] = tableID
	}
	return ids, nil
}

func (s *MemoryStore) UpdateRow(_ context.Context, dataID models.ID, cells map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.row(dataID)
	if row == nil {
		return ErrNotFound
	}
	for k, v := range cells {
		row.Content[k] = v
	}
	return nil
}

func (s *MemoryStore) DeleteRow(_ context.Context, dataID models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tableID, ok := s.rowOf[dataID]
	if !ok {
		return ErrNotFound
	}
	t := s.tables[tableID]
	for i, r := range t.rows {
		if r.DataID == dataID {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			break
		}
	}
	delete(s.rowOf, dataID)
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() {}

func (s *MemoryStore) repo(id models.ID) *memRepo {
	for _, r := range s.repos {
		if r.id == id {
			return r
		}
	}
	return nil
}

func (s *MemoryStore) row(dataID models.ID) *StoredRow {
	tableID, ok := s.rowOf[dataID]
	if !ok {
		return nil
	}
	t := s.tables[tableID]
	for i := range t.rows {
		if t.rows[i].DataID == dataID {
			return &t.rows[i]
		}
	}
	return nil
}

// dropTable removes a table and its rows; the caller holds the lock
func (s *MemoryStore) dropTable(id models.ID) {
	t, ok := s.tables[id]
	if !ok {
		return
	}
	for _, r := range t.rows {
		delete(s.rowOf, r.DataID)
	}
	delete(s.tables, id)
}

func copyCells(cells map[string]string) map[string]string {
	out := make(map[string]string, len(cells))
	for k, v := range cells {
		out[k] = v
	}
	return out
}
