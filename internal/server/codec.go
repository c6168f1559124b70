package server

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFile is returned for uploads that are neither xlsx nor csv
var ErrUnsupportedFile = errors.New("unsupported file type")

// exportSheet names the single sheet of an exported workbook
const exportSheet = "data"

// ReadSheet decodes an uploaded spreadsheet into its header row and data
// rows. The format is chosen by the file extension.
func ReadSheet(filename string, r io.Reader) ([]string, [][]string, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	return header, records[1:], nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

// MapRows keeps the cells of known columns. Unknown columns are ignored and
// rows without any known value are skipped.
func MapRows(columns, header []string, records [][]string) []map[string]string {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	out := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		cells := make(map[string]string)
		filled := false
		for i, h := range header {
			if !known[h] || i >= len(rec) {
				continue
			}
			cells[h] = rec[i]
			if strings.TrimSpace(rec[i]) != "" {
				filled = true
			}
		}
		if filled {
			out = append(out, cells)
		}
	}
	return out
}

// WriteXLSX renders a table as a workbook with the header row followed by the data rows
func WriteXLSX(columns []string, rows []StoredRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := append([]string{"data_id"}, columns...)
	if err := setRow(f, 1, header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		values := make([]string, len(header))
		values[0] = row.DataID.String()
		for j, c := range columns {
			values[j+1] = row.Content[c]
		}
		if err := setRow(f, i+2, values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
