package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

func testRows() ([]string, []models.Row) {
	headers := []string{"name", "note", "data_id"}
	rows := []models.Row{
		{DataID: "1", Cells: map[string]string{"name": "alice", "note": "likes, commas \"and\" quotes", "data_id": "1"}},
		{DataID: "2", Cells: map[string]string{"name": "bob", "note": "", "data_id": "2"}},
	}
	return headers, rows
}

func TestExportToCSV(t *testing.T) {
	headers, rows := testRows()

	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "test.csv")

	if err := ExportToCSV(headers, rows, csvPath); err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	// Verify file exists and has correct permissions
	info, err := os.Stat(csvPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected file permissions 0644, got %o", info.Mode().Perm())
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if !slicesEqual(records[0], headers) {
		t.Errorf("Header mismatch.\nExpected: %v\nGot: %v", headers, records[0])
	}
	if records[1][1] != `likes, commas "and" quotes` {
		t.Errorf("Expected quoted note to survive, got '%s'", records[1][1])
	}
	if records[2][2] != "2" {
		t.Errorf("Expected data_id '2', got '%s'", records[2][2])
	}
}

func TestExportToJSONKeepsHeaderOrder(t *testing.T) {
	headers, rows := testRows()

	jsonPath := filepath.Join(t.TempDir(), "test.json")
	if err := ExportToJSON(headers, rows, jsonPath); err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var parsed []map[string]string
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(parsed))
	}
	if parsed[1]["name"] != "bob" {
		t.Errorf("Expected name 'bob', got '%s'", parsed[1]["name"])
	}

	jsonStr := string(data)
	if strings.Index(jsonStr, `"name"`) > strings.Index(jsonStr, `"note"`) {
		t.Error("keys should follow header order")
	}
	if !strings.Contains(jsonStr, "\n  ") {
		t.Error("JSON should be indented")
	}
}

func TestExportEmptyRows(t *testing.T) {
	tmpDir := t.TempDir()

	csvPath := filepath.Join(tmpDir, "empty.csv")
	if err := ExportToCSV([]string{"A"}, nil, csvPath); err != nil {
		t.Fatalf("ExportToCSV with no rows failed: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 1 { // Only header
		t.Errorf("Expected 1 record (header), got %d", len(records))
	}

	jsonPath := filepath.Join(tmpDir, "empty.json")
	if err := ExportToJSON([]string{"A"}, nil, jsonPath); err != nil {
		t.Fatalf("ExportToJSON with no rows failed: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Expected empty array, got %s", data)
	}
}

func TestWriteDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	path, err := WriteDownload(dir, "T123", []byte("xlsx-bytes"))
	if err != nil {
		t.Fatalf("WriteDownload failed: %v", err)
	}
	if filepath.Base(path) != "T123.xlsx" {
		t.Errorf("Expected T123.xlsx, got %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read download: %v", err)
	}
	if string(data) != "xlsx-bytes" {
		t.Errorf("Unexpected content %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the download in %s, found %d entries", dir, len(entries))
	}
}

func TestWriteDownloadRejectsEmptyBlob(t *testing.T) {
	dir := t.TempDir()

	if _, err := WriteDownload(dir, "T1", nil); err == nil {
		t.Fatal("expected error for empty blob")
	}
	if _, err := os.Stat(filepath.Join(dir, "T1.xlsx")); !os.IsNotExist(err) {
		t.Error("no file should be written on failure")
	}
}

func TestDownloadFileNameSanitizes(t *testing.T) {
	if got := DownloadFileName("../etc/passwd"); strings.Contains(got, "/") {
		t.Errorf("file name should not contain separators, got %s", got)
	}
}

// Helper function to compare slices
func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
