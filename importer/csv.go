// Package importer parses the external spreadsheet extracts (waybill,
// BACKLOG, REDCON, part identifiers) into typed records and loads them
// into the store. Parsing is strict about required columns and lenient
// about everything else: a missing required column aborts the whole
// import before any store mutation, a malformed cell falls back to its
// documented default.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// table is a parsed extract with normalized header lookup.
type table struct {
	header map[string]int
	rows   [][]string
}

// normalizeHeader folds "Part Number", "PART_NUMBER" and "part number"
// onto one key.
func normalizeHeader(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	return strings.Trim(name, "_")
}

func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty extract")
	}
	t := &table{header: map[string]int{}, rows: rows[1:]}
	for i, name := range rows[0] {
		t.header[normalizeHeader(name)] = i
	}
	return t, nil
}

// require returns the column indexes for names, or an error naming the
// first missing column. Called before any row is processed so a bad
// extract never half-imports.
func (t *table) require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		col, ok := t.header[name]
		if !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
		idx[i] = col
	}
	return idx, nil
}

// cell returns the trimmed value of a named column, or "" when the
// column is absent or the row is short.
func (t *table) cell(row []string, name string) string {
	col, ok := t.header[name]
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func (t *table) at(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// intOr parses s as an integer, tolerating decimal renderings like
// "5.0" that spreadsheets produce, with a fallback default.
func intOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return int(f)
	}
	return def
}

// floatOr parses s as a float, accepting the comma decimal separator
// used by the cost exports.
func floatOr(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return f
	}
	return def
}
