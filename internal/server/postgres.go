package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// uniqueViolation is the PostgreSQL error code for a unique constraint failure
const uniqueViolation = "23505"

// PostgresStore implements Store on PostgreSQL through a pgx pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the schema if needed
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, t.id, t.name
		FROM repositories r
		LEFT JOIN data_tables t ON t.repo_id = r.id
		ORDER BY r.created_at, r.id, t.created_at, t.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer rows.Close()

	repos := make([]models.Repository, 0)
	for rows.Next() {
		var (
			repoID, repoName   string
			tableID, tableName *string
		)
		if err := rows.Scan(&repoID, &repoName, &tableID, &tableName); err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		if n := len(repos); n == 0 || repos[n-1].ID != models.ID(repoID) {
			repos = append(repos, models.Repository{ID: models.ID(repoID), Name: repoName, Tables: []models.Table{}})
		}
		if tableID != nil {
			last := &repos[len(repos)-1]
			last.Tables = append(last.Tables, models.Table{ID: models.ID(*tableID), Name: *tableName, RepositoryID: last.ID})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	return repos, nil
}

func (s *PostgresStore) CreateRepository(ctx context.Context, name string) (models.Repository, error) {
	id := newID()
	_, err := s.pool.Exec(ctx, `INSERT INTO repositories (id, name) VALUES ($1, $2)`, string(id), name)
	if isUniqueViolation(err) {
		return models.Repository{}, ErrRepositoryExists
	}
	if err != nil {
		return models.Repository{}, fmt.Errorf("failed to create repository: %w", err)
	}
	return models.Repository{ID: id, Name: name, Tables: []models.Table{}}, nil
}

func (s *PostgresStore) DeleteRepository(ctx context.Context, id models.ID) error {
	return s.execOne(ctx, "delete repository", `DELETE FROM repositories WHERE id = $1`, string(id))
}

func (s *PostgresStore) CreateTable(ctx context.Context, repoID models.ID, name string, columns []string) (models.Table, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM repositories WHERE id = $1)`, string(repoID)).Scan(&exists); err != nil {
		return models.Table{}, fmt.Errorf("failed to look up repository: %w", err)
	}
	if !exists {
		return models.Table{}, ErrNotFound
	}

	id := newID()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO data_tables (id, repo_id, name, columns) VALUES ($1, $2, $3, $4)`,
		string(id), string(repoID), name, columns)
	if isUniqueViolation(err) {
		return models.Table{}, ErrTableExists
	}
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to create table: %w", err)
	}
	return models.Table{ID: id, Name: name, RepositoryID: repoID}, nil
}

func (s *PostgresStore) DeleteTable(ctx context.Context, id models.ID) error {
	return s.execOne(ctx, "delete table", `DELETE FROM data_tables WHERE id = $1`, string(id))
}

func (s *PostgresStore) TableColumns(ctx context.Context, tableID models.ID) ([]string, error) {
	var columns []string
	err := s.pool.QueryRow(ctx, `SELECT columns FROM data_tables WHERE id = $1`, string(tableID)).Scan(&columns)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table columns: %w", err)
	}
	return columns, nil
}

func (s *PostgresStore) ListRows(ctx context.Context, tableID models.ID) ([]StoredRow, error) {
	if _, err := s.TableColumns(ctx, tableID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT id, content FROM data_rows WHERE table_id = $1 ORDER BY seq`, string(tableID))
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	defer rows.Close()

	out := make([]StoredRow, 0)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		content := make(map[string]string)
		if err := json.Unmarshal(raw, &content); err != nil {
			return nil, fmt.Errorf("failed to decode row %s: %w", id, err)
		}
		out = append(out, StoredRow{DataID: models.ID(id), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	return out, nil
}

// InsertRows writes every row in one transaction
func (s *PostgresStore) InsertRows(ctx context.Context, tableID models.ID, rows []map[string]string) ([]models.ID, error) {
	if _, err := s.TableColumns(ctx, tableID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]models.ID, len(rows))
	batch := &pgx.Batch{}
	for i, cells := range rows {
		content, err := json.Marshal(cells)
		if err != nil {
			return nil, fmt.Errorf("failed to encode row: %w", err)
		}
		ids[i] = newID()
		batch.Queue(`INSERT INTO data_rows (id, table_id, content) VALUES ($1, $2, $3::jsonb)`,
			string(ids[i]), string(tableID), string(content))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to insert rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rows: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) UpdateRow(ctx context.Context, dataID models.ID, cells map[string]string) error {
	patch, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	return s.execOne(ctx, "update row",
		`UPDATE data_rows SET content = content || $2::jsonb WHERE id = $1`, string(dataID), string(patch))
}

func (s *PostgresStore) DeleteRow(ctx context.Context, dataID models.ID) error {
	return s.execOne(ctx, "delete row", `DELETE FROM data_rows WHERE id = $1`, string(dataID))
}

// execOne runs a statement that must affect exactly one row
func (s *PostgresStore) execOne(ctx context.Context, op, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
