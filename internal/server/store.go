// Package server is a reference implementation of the remote data gateway.
// It serves the HTTP contract the terminal client consumes, backed by an
// in-memory or PostgreSQL Store.
package server

import (
	"context"
	"errors"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

var (
	// ErrNotFound is returned when a repository, table or row does not exist
	ErrNotFound = errors.New("not found")

	// ErrTableExists is returned when a repository already has a table with the name
	ErrTableExists = errors.New("table already exists")

	// ErrRepositoryExists is returned when the repository name is taken
	ErrRepositoryExists = errors.New("repository already exists")
)

// StoredRow is a persisted row. Content only holds columns that were written.
type StoredRow struct {
	DataID  models.ID
	Content map[string]string
}

// Store is the persistence behind the gateway
type Store interface {
	// ListRepositories returns every repository with its tables, oldest first
	ListRepositories(ctx context.Context) ([]models.Repository, error)
	CreateRepository(ctx context.Context, name string) (models.Repository, error)
	// DeleteRepository deletes the repository, its tables and their rows
	DeleteRepository(ctx context.Context, id models.ID) error

	CreateTable(ctx context.Context, repoID models.ID, name string, columns []string) (models.Table, error)
	DeleteTable(ctx context.Context, id models.ID) error
	// TableColumns returns the columns of a table in definition order
	TableColumns(ctx context.Context, tableID models.ID) ([]string, error)

	// ListRows returns the rows of a table in insertion order
	ListRows(ctx context.Context, tableID models.ID) ([]StoredRow, error)
	// InsertRows appends rows to a table and returns their ids
	InsertRows(ctx context.Context, tableID models.ID, rows []map[string]string) ([]models.ID, error)
	// UpdateRow merges cells into an existing row
	UpdateRow(ctx context.Context, dataID models.ID, cells map[string]string) error
	DeleteRow(ctx context.Context, dataID models.ID) error

	Close()
}
