package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one recorded notification
type Entry struct {
	ID        int64
	Kind      models.NotificationKind
	Message   string
	TableID   models.ID
	CreatedAt time.Time
}

// Store keeps the activity log in SQLite
type Store struct {
	db         *sql.DB
	maxEntries int
}

// NewStore opens (or creates) the activity log at path.
// maxEntries > 0 caps the number of rows kept.
func NewStore(path string, maxEntries int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Create schema
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Add records a notification
func (s *Store) Add(n models.Notification) error {
	at := n.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO activity_log (kind, message, table_id, created_at)
		VALUES (?, ?, ?, ?)`,
		string(n.Kind),
		n.Message,
		n.TableID.String(),
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	if s.maxEntries > 0 {
		return s.Prune(s.maxEntries)
	}
	return nil
}

// Prune keeps only the newest keep entries
func (s *Store) Prune(keep int) error {
	_, err := s.db.Exec(`
		DELETE FROM activity_log
		WHERE id NOT IN (SELECT id FROM activity_log ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune activity log: %w", err)
	}
	return nil
}

// GetRecent retrieves the most recent entries, newest first
func (s *Store) GetRecent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, message, table_id, created_at
		FROM activity_log
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	return scanEntries(rows)
}

// Search retrieves entries whose message contains text, newest first
func (s *Store) Search(text string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, message, table_id, created_at
		FROM activity_log
		WHERE message LIKE ?
		ORDER BY id DESC
		LIMIT ?`, "%"+text+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search activity log: %w", err)
	}
	return scanEntries(rows)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind, tableID, createdAt string

		if err := rows.Scan(&e.ID, &kind, &e.Message, &tableID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}

		e.Kind = models.NotificationKind(kind)
		e.TableID = models.ID(tableID)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
