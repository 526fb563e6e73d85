// pkg/ingest/decode.go
package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/David-Botos/data-cleaner/pkg/converter"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

// Decoder turns a file's bytes into a snapshot
type Decoder interface {
	Decode(r io.Reader) (*model.Snapshot, error)
}

// DecoderFor picks a decoder by file extension (case-insensitive)
func DecoderFor(filename string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return CSVDecoder{}, nil
	case ".xlsx", ".xls":
		return SpreadsheetDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// CSVDecoder reads comma-separated text. Lines are split on '\n', blank
// lines are dropped and the first remaining line is the header. Fields are
// trimmed and stripped of double quotes; quoted commas are not supported.
type CSVDecoder struct{}

func (CSVDecoder) Decode(r io.Reader) (*model.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseCSV(string(data)), nil
}

// ParseCSV decodes comma-separated text held in memory
func ParseCSV(text string) *model.Snapshot {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return model.NewSnapshot([]string{}, nil)
	}

	header := splitFields(lines[0])
	columns := uniqueColumns(header)
	rows := make([]model.Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, buildRow(columns, splitFields(line)))
	}
	return model.NewSnapshot(columns, rows)
}

func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(strings.TrimSpace(f), `"`, "")
	}
	return fields
}

// buildRow pairs fields with columns by position. Missing and empty fields
// become nil; surplus fields are ignored.
func buildRow(columns []string, fields []string) model.Row {
	row := make(model.Row, len(columns))
	for i, col := range columns {
		if i < len(fields) {
			row[col] = converter.ParseField(fields[i])
		} else {
			row[col] = nil
		}
	}
	return row
}

// uniqueColumns suffixes repeated header names so no column shadows another
func uniqueColumns(header []string) []string {
	seen := make(map[string]int, len(header))
	columns := make([]string, len(header))
	for i, name := range header {
		seen[name]++
		if n := seen[name]; n > 1 {
			candidate := fmt.Sprintf("%s_%d", name, n)
			for seen[candidate] > 0 {
				n++
				candidate = fmt.Sprintf("%s_%d", name, n)
			}
			seen[candidate]++
			name = candidate
		}
		columns[i] = name
	}
	return columns
}

// SpreadsheetDecoder reads the first sheet of an Office Open XML workbook.
// The first non-blank row is the header; blank rows are skipped.
type SpreadsheetDecoder struct{}

func (SpreadsheetDecoder) Decode(r io.Reader) (*model.Snapshot, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.NewSnapshot([]string{}, nil), nil
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	var records [][]string
	for _, cellRow := range cells {
		fields := make([]string, len(cellRow))
		blank := true
		for i, c := range cellRow {
			fields[i] = strings.TrimSpace(c)
			if fields[i] != "" {
				blank = false
			}
		}
		if !blank {
			records = append(records, fields)
		}
	}
	if len(records) == 0 {
		return model.NewSnapshot([]string{}, nil), nil
	}

	columns := uniqueColumns(records[0])
	rows := make([]model.Row, 0, len(records)-1)
	for _, fields := range records[1:] {
		rows = append(rows, buildRow(columns, fields))
	}
	return model.NewSnapshot(columns, rows), nil
}
