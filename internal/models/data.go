package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository is a named container of tables
type Repository struct {
	ID     ID      `json:"repo_id"`
	Name   string  `json:"repo_name"`
	Tables []Table `json:"tables"`
}

// Table is a named collection of rows inside a repository
type Table struct {
	ID           ID     `json:"table_id"`
	Name         string `json:"table_name"`
	RepositoryID ID     `json:"-"`
}

// Row is a persisted record. Cells holds exactly one entry per header column.
type Row struct {
	DataID ID
	Cells  map[string]string
}

// Value returns the cell value for a column
func (r Row) Value(col string) string {
	return r.Cells[col]
}

// Clone returns a deep copy of the row
func (r Row) Clone() Row {
	cells := make(map[string]string, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{DataID: r.DataID, Cells: cells}
}

// StagedRow is a locally created row that has not been submitted yet.
// Key is only used for rendering identity.
type StagedRow struct {
	Key   string
	Cells map[string]string
}

// NewStagedRow creates a staged row with every header column set to ""
func NewStagedRow(headers []string) StagedRow {
	cells := make(map[string]string, len(headers))
	for _, h := range headers {
		cells[h] = ""
	}
	return StagedRow{Key: uuid.NewString(), Cells: cells}
}

// BlankColumn returns the first header column whose value is blank
func (s StagedRow) BlankColumn(headers []string) (string, bool) {
	for _, h := range headers {
		if strings.TrimSpace(s.Cells[h]) == "" {
			return h, true
		}
	}
	return "", false
}

// CellStatus tracks the persistence state of a persisted cell
type CellStatus int

const (
	CellClean CellStatus = iota
	CellDirty
	CellPending
	CellFailed
)

func (s CellStatus) String() string {
	switch s {
	case CellDirty:
		return "dirty"
	case CellPending:
		return "pending"
	case CellFailed:
		return "failed"
	default:
		return "clean"
	}
}

// CellKey addresses a persisted cell independently of its row index
type CellKey struct {
	DataID ID
	Column string
}

// NotificationKind is the severity of a notification
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a transient user-visible message
type Notification struct {
	Kind    NotificationKind
	Message string
	TableID ID
	At      time.Time
}

// TableData is one snapshot of a table as served by the gateway
type TableData struct {
	Headers []string
	Rows    []Row
}

// tableDataWire mirrors the fetch-table-data response body
type tableDataWire struct {
	Header struct {
		Properties Properties `json:"properties"`
		View       []string   `json:"view"`
	} `json:"header"`
	Data []struct {
		DataID  ID              `json:"data_id"`
		Content json.RawMessage `json:"content"`
	} `json:"data"`
}

// UnmarshalJSON derives the header and normalizes every row against it
func (t *TableData) UnmarshalJSON(data []byte) error {
	var wire tableDataWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to decode table data: %w", err)
	}

	headers := wire.Header.Properties.Keys()
	if wire.Header.View != nil {
		headers = append([]string(nil), wire.Header.View...)
	}

	rows := make([]Row, 0, len(wire.Data))
	for _, item := range wire.Data {
		content, err := decodeContent(item.Content)
		if err != nil {
			return fmt.Errorf("failed to decode row %s: %w", item.DataID, err)
		}
		rows = append(rows, NormalizeRow(item.DataID, content, headers))
	}

	t.Headers = headers
	t.Rows = rows
	return nil
}

// NormalizeRow builds a Row with exactly one entry per header column.
// Missing and null values become "", other values are stringified.
func NormalizeRow(dataID ID, content map[string]any, headers []string) Row {
	cells := make(map[string]string, len(headers))
	for _, h := range headers {
		if h == "data_id" {
			cells[h] = dataID.String()
			continue
		}
		cells[h] = Stringify(content[h])
	}
	return Row{DataID: dataID, Cells: cells}
}

// Stringify renders a decoded JSON value as cell text
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func decodeContent(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	content := make(map[string]any)
	if err := dec.Decode(&content); err != nil {
		return nil, err
	}
	return content, nil
}
