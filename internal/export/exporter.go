package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

// DownloadFileName returns the local file name for an exported table
func DownloadFileName(tableID models.ID) string {
	name := strings.NewReplacer("/", "_", `\`, "_", "..", "_").Replace(tableID.String())
	return name + ".xlsx"
}

// WriteDownload stores an exported table blob as <tableID>.xlsx in dir.
// Nothing is left behind when the write fails.
func WriteDownload(dir string, tableID models.ID, blob []byte) (string, error) {
	if tableID.IsZero() {
		return "", errors.New("table id is required")
	}
	if len(blob) == 0 {
		return "", errors.New("export is empty")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	path := filepath.Join(dir, DownloadFileName(tableID))
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create download file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write download file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to set download file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close download file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move download file into place: %w", err)
	}

	return path, nil
}

// ExportToCSV writes the header row and then every row, in header order
func ExportToCSV(headers []string, rows []models.Row, path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			record[i] = row.Value(h)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}
	return nil
}

// ExportToJSON writes the rows as an array of objects whose keys follow header order
func ExportToJSON(headers []string, rows []models.Row, path string) error {
	objects := make([]models.Properties, 0, len(rows))
	for _, row := range rows {
		var obj models.Properties
		for _, h := range headers {
			v, err := json.Marshal(row.Value(h))
			if err != nil {
				return fmt.Errorf("failed to marshal cell %q: %w", h, err)
			}
			obj.Set(h, v)
		}
		objects = append(objects, obj)
	}

	data, err := json.MarshalIndent(objects, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}
