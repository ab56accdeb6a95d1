// Package csvfile stores materialized tables as {base}/{domain}/{table}.csv.
// The same files feed foreign-key pools and parent lookups of later tables.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mmrzaf/mockgen/internal/domain"
)

type Store struct {
	baseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Path(domainName, table string) string {
	return filepath.Join(s.baseDir, domainName, table+".csv")
}

// Remove deletes prior output for the table. A missing file is not an error.
func (s *Store) Remove(domainName, table string) error {
	err := os.Remove(s.Path(domainName, table))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ReadTable returns the header and data rows of a materialized table.
func (s *Store) ReadTable(domainName, table string) ([]string, [][]string, error) {
	path := s.Path(domainName, table)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrMissingSourceTable, path)
		}
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: %s is empty", domain.ErrMissingSourceTable, path)
		}
		return nil, nil, fmt.Errorf("read header %s: %w", path, err)
	}

	rows := make([][]string, 0)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// DistinctValues returns the distinct non-empty values of a column in order of
// first appearance.
func (s *Store) DistinctValues(domainName, table, column string) ([]string, error) {
	header, rows, err := s.ReadTable(domainName, table)
	if err != nil {
		return nil, err
	}
	idx := ColumnIndex(header, column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s not in %s", domain.ErrMissingColumn, column, s.Path(domainName, table))
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if idx >= len(row) || row[idx] == "" {
			continue
		}
		v := row[idx]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func ColumnIndex(header []string, column string) int {
	for i, h := range header {
		if h == column {
			return i
		}
	}
	return -1
}

// Writer appends rows to one table file. The header goes out once.
type Writer struct {
	path          string
	f             *os.File
	w             *csv.Writer
	headerWritten bool
	closed        bool
	rows          int64
}

// Create removes stale output and opens a fresh file for the table.
func (s *Store) Create(domainName, table string) (*Writer, error) {
	if err := s.Remove(domainName, table); err != nil {
		return nil, fmt.Errorf("%w: remove stale output: %v", domain.ErrSinkWrite, err)
	}
	path := s.Path(domainName, table)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSinkWrite, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSinkWrite, err)
	}
	return &Writer{path: path, f: f, w: csv.NewWriter(f)}, nil
}

func (w *Writer) Path() string { return w.path }

func (w *Writer) Rows() int64 { return w.rows }

func (w *Writer) WriteHeader(columns []string) error {
	if w.headerWritten {
		return nil
	}
	if err := w.w.Write(columns); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSinkWrite, err)
	}
	w.headerWritten = true
	return w.flush()
}

func (w *Writer) WriteRows(rows [][]string) error {
	if err := w.w.WriteAll(rows); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSinkWrite, err)
	}
	w.rows += int64(len(rows))
	return w.flush()
}

func (w *Writer) flush() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSinkWrite, err)
	}
	return nil
}

// Close is safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	ferr := w.flush()
	cerr := w.f.Close()
	if ferr != nil {
		return ferr
	}
	if cerr != nil {
		return fmt.Errorf("%w: %v", domain.ErrSinkWrite, cerr)
	}
	return nil
}
