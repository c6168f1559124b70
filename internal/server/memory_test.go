package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRepositoryNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.CreateRepository(ctx, "QA")
	require.NoError(t, err)
	_, err = s.CreateRepository(ctx, "qa")
	assert.ErrorIs(t, err, ErrRepositoryExists)
}

func TestMemoryStoreTablesAreScopedToRepository(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	qa, err := s.CreateRepository(ctx, "qa")
	require.NoError(t, err)
	staging, err := s.CreateRepository(ctx, "staging")
	require.NoError(t, err)

	_, err = s.CreateTable(ctx, qa.ID, "users", []string{"name"})
	require.NoError(t, err)
	_, err = s.CreateTable(ctx, qa.ID, "users", []string{"email"})
	assert.ErrorIs(t, err, ErrTableExists)
	_, err = s.CreateTable(ctx, staging.ID, "users", []string{"name"})
	assert.NoError(t, err)

	_, err = s.CreateTable(ctx, "missing", "users", []string{"name"})
	assert.ErrorIs(t, err, ErrNotFound)

	repos, err := s.ListRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Len(t, repos[0].Tables, 1)
	assert.Equal(t, qa.ID, repos[0].Tables[0].RepositoryID)
}

func TestMemoryStoreRowLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	repo, err := s.CreateRepository(ctx, "qa")
	require.NoError(t, err)
	table, err := s.CreateTable(ctx, repo.ID, "users", []string{"name", "age"})
	require.NoError(t, err)

	ids, err := s.InsertRows(ctx, table.ID, []map[string]string{
		{"name": "alice", "age": "30"},
		{"name": "bob", "age": "41"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	require.NoError(t, s.UpdateRow(ctx, ids[0], map[string]string{"age": "31"}))
	require.NoError(t, s.DeleteRow(ctx, ids[1]))

	rows, err := s.ListRows(ctx, table.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ids[0], rows[0].DataID)
	assert.Equal(t, map[string]string{"name": "alice", "age": "31"}, rows[0].Content)

	assert.ErrorIs(t, s.UpdateRow(ctx, ids[1], map[string]string{"age": "1"}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteRow(ctx, ids[1]), ErrNotFound)
}

func TestMemoryStoreListRowsReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	repo, _ := s.CreateRepository(ctx, "qa")
	table, _ := s.CreateTable(ctx, repo.ID, "users", []string{"name"})
	_, err := s.InsertRows(ctx, table.ID, []map[string]string{{"name": "alice"}})
	require.NoError(t, err)

	rows, _ := s.ListRows(ctx, table.ID)
	rows[0].Content["name"] = "mallory"

	rows, _ = s.ListRows(ctx, table.ID)
	assert.Equal(t, "alice", rows[0].Content["name"])
}

func TestMemoryStoreDeleteRepositoryCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	repo, _ := s.CreateRepository(ctx, "qa")
	table, _ := s.CreateTable(ctx, repo.ID, "users", []string{"name"})
	ids, err := s.InsertRows(ctx, table.ID, []map[string]string{{"name": "alice"}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRepository(ctx, repo.ID))

	_, err = s.TableColumns(ctx, table.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateRow(ctx, ids[0], map[string]string{"name": "x"}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteRepository(ctx, repo.ID), ErrNotFound)
}

func TestMemoryStoreDeleteTable(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	repo, _ := s.CreateRepository(ctx, "qa")
	users, _ := s.CreateTable(ctx, repo.ID, "users", []string{"name"})
	orders, _ := s.CreateTable(ctx, repo.ID, "orders", []string{"sku"})

	require.NoError(t, s.DeleteTable(ctx, users.ID))
	assert.ErrorIs(t, s.DeleteTable(ctx, users.ID), ErrNotFound)

	repos, _ := s.ListRepositories(ctx)
	require.Len(t, repos[0].Tables, 1)
	assert.Equal(t, orders.ID, repos[0].Tables[0].ID)
}
