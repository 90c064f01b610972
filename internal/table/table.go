// Package table holds the small in-memory CSV table shared by the sample
// reader, the local reader and the filter/merge utility.
package table

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a header plus string rows, in file order.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// DecodeError reports bytes that are neither gzip-compressed CSV nor CSV.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not read %s: can only open gzip csv or csv data: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of name in the header, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Decode parses data as gzip-compressed CSV, falling back to plain CSV when
// the bytes carry no gzip header. At most nrows data rows are kept; nrows <= 0
// keeps all of them.
func Decode(source string, data []byte, nrows int) (*Table, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	switch {
	case err == nil:
		defer zr.Close()
		t, err := ReadCSV(zr, nrows)
		if err != nil {
			return nil, &DecodeError{Source: source, Err: err}
		}
		return t, nil
	case isNotGzip(err):
		t, err := ReadCSV(bytes.NewReader(data), nrows)
		if err != nil {
			return nil, &DecodeError{Source: source, Err: err}
		}
		return t, nil
	default:
		return nil, &DecodeError{Source: source, Err: err}
	}
}

func isNotGzip(err error) bool {
	return errors.Is(err, gzip.ErrHeader) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// ReadFile reads a local .csv or .csv.gz file.
func ReadFile(path string, nrows int) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(path, data, nrows)
}

// ReadCSV reads a header row and up to nrows records from r. Records shorter
// than the header are kept as is and read as blank cells downstream; longer
// ones are an error.
func ReadCSV(r io.Reader, nrows int) (*Table, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("no columns to parse")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Columns: header, Rows: [][]string{}}
	for nrows <= 0 || len(t.Rows) < nrows {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		if len(record) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("record on line %d: expected %d fields, saw %d", line, len(header), len(record))
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// WriteCSV writes the header and all rows to w.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes the table to path, gzip-compressed when path ends in ".gz".
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}

	if err := t.WriteCSV(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("finalize %s: %w", path, err)
		}
	}
	return f.Close()
}

// Select projects the table onto columns, in the order given.
func (t *Table) Select(columns []string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.ColumnIndex(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("column %q not found in %v", c, t.Columns)
		}
	}

	out := &Table{Columns: append([]string(nil), columns...), Rows: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		projected := make([]string, len(idx))
		for i, j := range idx {
			if j < len(row) {
				projected[i] = row[j]
			}
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

// Concat stacks tables vertically. The result's columns are the union of all
// input columns in first-seen order; cells absent from a table are empty.
func Concat(tables ...*Table) *Table {
	out := &Table{Columns: []string{}, Rows: [][]string{}}
	pos := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}

	for _, t := range tables {
		for _, row := range t.Rows {
			merged := make([]string, len(out.Columns))
			for i, c := range t.Columns {
				if i < len(row) {
					merged[pos[c]] = row[i]
				}
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}
