// Package housing loads uploaded house-sale tables, describes them, builds the
// canned charts and scores price regressors on a held-out split.
package housing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrEmptyDataset      = errors.New("dataset has no rows")
	ErrMalformedCSV      = errors.New("malformed csv")
	ErrMissingTarget     = errors.New("dataset has no price column")
	ErrNonNumericTarget  = errors.New("price column is not numeric")
	ErrNonNumericFeature = errors.New("feature column is not numeric")
	ErrMissingColumn     = errors.New("column not found")
	ErrNonNumericColumn  = errors.New("column is not numeric")
	ErrUnknownChart      = errors.New("unknown chart")
	ErrInsufficientRows  = errors.New("not enough rows to split into train and test sets")
)

const (
	TargetColumn       = "price"
	DefaultPreviewRows = 5
)

// DroppedColumns are removed before training when present.
var DroppedColumns = []string{"id", "date"}

// Dataset is an uploaded table kept as raw string cells.
type Dataset struct {
	ID      string
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// Load parses CSV with a header row. A leading UTF-8 BOM is stripped; short
// rows are padded with empty cells, long rows are rejected.
func Load(r io.Reader, name string) (*Dataset, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformedCSV, err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	ds := &Dataset{
		Name:    name,
		Columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := ds.index[c]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformedCSV, c)
		}
		ds.index[c] = i
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if len(record) > len(columns) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformedCSV, line, len(record), len(columns))
		}
		if len(record) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, record)
			record = padded
		}
		ds.Rows = append(ds.Rows, record)
	}

	if len(ds.Rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return ds, nil
}

// Len is the number of data rows.
func (ds *Dataset) Len() int {
	return len(ds.Rows)
}

func (ds *Dataset) HasColumn(name string) bool {
	_, ok := ds.index[name]
	return ok
}

// Preview returns the first n rows (DefaultPreviewRows when n <= 0).
func (ds *Dataset) Preview(n int) [][]string {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	if n > len(ds.Rows) {
		n = len(ds.Rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = append([]string(nil), ds.Rows[i]...)
	}
	return out
}

// missingMarkers are read as empty cells, as spreadsheet exports write them.
var missingMarkers = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"null": true,
	"NULL": true,
}

// NaN is missing in any letter case.
func isMissing(cell string) bool {
	return missingMarkers[cell] || strings.EqualFold(strings.TrimPrefix(cell, "-"), "nan")
}

// Cell is the trimmed cell text; empty means missing.
func (ds *Dataset) Cell(row int, column string) (string, bool) {
	idx, ok := ds.index[column]
	if !ok || row < 0 || row >= len(ds.Rows) {
		return "", false
	}
	return strings.TrimSpace(ds.Rows[row][idx]), true
}

// Numeric parses one column. Missing cells are reported through present;
// a non-empty cell that fails to parse, or parses to an infinity, yields
// ErrNonNumericColumn.
func (ds *Dataset) Numeric(column string) (values []float64, present []bool, err error) {
	idx, ok := ds.index[column]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}
	values = make([]float64, len(ds.Rows))
	present = make([]bool, len(ds.Rows))
	for i, row := range ds.Rows {
		cell := strings.TrimSpace(row[idx])
		if isMissing(cell) {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, nil, fmt.Errorf("%w: %s row %d value %q", ErrNonNumericColumn, column, i+1, cell)
		}
		values[i] = v
		present[i] = true
	}
	return values, present, nil
}

// NumericColumns lists columns whose non-empty cells all parse as numbers.
func (ds *Dataset) NumericColumns() []string {
	names := make([]string, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		_, present, err := ds.Numeric(c)
		if err != nil {
			continue
		}
		found := false
		for _, p := range present {
			if p {
				found = true
				break
			}
		}
		if found {
			names = append(names, c)
		}
	}
	return names
}
