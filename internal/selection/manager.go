package selection

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rebeliceyang/lazytdm/internal/models"
	"gopkg.in/yaml.v3"
)

// TableRef is a table as remembered between sessions
type TableRef struct {
	ID   models.ID `yaml:"table_id"`
	Name string    `yaml:"table_name"`
}

// State is the persisted selection. Empty fields are omitted from the file.
type State struct {
	ActiveRepository models.ID  `yaml:"active_repository,omitempty"`
	ActiveTable      models.ID  `yaml:"active_table,omitempty"`
	Tables           []TableRef `yaml:"tables,omitempty"`
}

// Manager persists the active repository, active table and the last-known table list
type Manager struct {
	path  string
	state State
}

// NewManager creates a selection manager backed by the YAML file at path
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path}

	// Load existing state if file exists
	if _, err := os.Stat(path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load selection: %w", err)
		}
	}

	return m, nil
}

// Load loads the state from the YAML file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read selection file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse selection: %w", err)
	}
	m.state = state

	return nil
}

// Save writes the state to the YAML file
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("failed to marshal selection: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write selection file: %w", err)
	}

	return nil
}

// State returns a copy of the current state
func (m *Manager) State() State {
	s := m.state
	s.Tables = append([]TableRef(nil), m.state.Tables...)
	return s
}

// SetRepository makes a repository active with its tables and clears the active table
func (m *Manager) SetRepository(id models.ID, tables []models.Table) error {
	m.state.ActiveRepository = id
	m.state.ActiveTable = ""
	m.state.Tables = refs(tables)
	return m.Save()
}

// SetTable makes a table active. An empty id clears it.
func (m *Manager) SetTable(id models.ID) error {
	m.state.ActiveTable = id
	return m.Save()
}

// SetTables replaces the remembered table list
func (m *Manager) SetTables(tables []models.Table) error {
	m.state.Tables = refs(tables)
	return m.Save()
}

// Clear forgets the whole selection
func (m *Manager) Clear() error {
	m.state = State{}
	return m.Save()
}

func refs(tables []models.Table) []TableRef {
	if len(tables) == 0 {
		return nil
	}
	out := make([]TableRef, 0, len(tables))
	for _, t := range tables {
		out = append(out, TableRef{ID: t.ID, Name: t.Name})
	}
	return out
}
