package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrSchema marks reference files that are missing a required column or
// carry a malformed value. Load-time schema errors are fatal.
var ErrSchema = errors.New("schema violation")

// Table is a flat header + rows view of a tabular file.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Column returns the index of the named header column (case-sensitive,
// surrounding whitespace ignored) or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Require resolves each named column, failing with ErrSchema on the first
// one that is absent.
func (t *Table) Require(names ...string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	for _, n := range names {
		i := t.Column(n)
		if i < 0 {
			return nil, fmt.Errorf("%s: missing column %q: %w", t.Name, n, ErrSchema)
		}
		out[n] = i
	}
	return out, nil
}

// Cell returns row[col] trimmed, or "" when the row is short.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// ReadTable reads a .csv, .tsv or .xlsx file. The first row is the header.
func ReadTable(path string) (*Table, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") {
		return readXLSX(path)
	}
	return readCSV(path, sniffDelimiter(path))
}

func readCSV(path string, delim rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	t := &Table{Name: filepath.Base(path)}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file: %w", t.Name, ErrSchema)
		}
		return nil, fmt.Errorf("%s: read header: %w", t.Name, err)
	}
	// Strip a UTF-8 BOM that spreadsheet exports like to prepend.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t.Header = header
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read row %d: %w", t.Name, len(t.Rows)+2, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
