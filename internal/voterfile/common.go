// Package voterfile reads voter files and person-entry lists from CSV.
package voterfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// RowError reports a CSV row that could not be mapped
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// row gives header-name access to one CSV record
type row struct {
	index  map[string]int
	record []string
}

func (r row) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

// readCSV reads a headed CSV and calls mapFunc for every data row. Rows
// that fail to parse or map are collected rather than aborting the read.
func readCSV(r io.Reader, required []string, mapFunc func(row) error) ([]RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[headerKey(h)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var rowErrs []RowError
	line := 1
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if err := mapFunc(row{index: index, record: record}); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
		}
	}

	if len(rowErrs) > 0 {
		slog.Warn("csv rows skipped", "count", len(rowErrs), "first", rowErrs[0].Error())
	}
	return rowErrs, nil
}

// headerKey normalizes "First Name", "first_name" and "FIRSTNAME" alike
func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, h)
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return f, nil
}

// parseDate accepts ISO and US month-first dates; empty means unknown
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	formats := []string{
		"2006-01-02",
		"01/02/2006",
		"1/2/2006",
		"20060102",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// parseAge returns nil for an empty field
func parseAge(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid age %q", s)
	}
	return &n, nil
}
