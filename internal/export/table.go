// Package export turns store rows into flat string tables and renders them as
// CSV, Excel or PDF. CSV and Excel can be read back into the same shape.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownFormat = errors.New("unknown export format")

// TableNames lists every exportable table.
var TableNames = []string{
	"assets",
	"suppliers",
	"spare_parts",
	"stock_txn",
	"work_orders",
	"wo_parts",
	"pm_plans",
	"activity_reports",
}

// Table is a header row plus string cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// KnownTable reports whether name is exportable.
func KnownTable(name string) bool {
	for _, n := range TableNames {
		if n == name {
			return true
		}
	}
	return false
}

// Index returns the position of column, or -1.
func (t Table) Index(column string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), column) {
			return i
		}
	}
	return -1
}

// Filename is "{table}_{YYYYMMDD_HHMMSS}.{ext}".
func (t Table) Filename(f Format, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", t.Name, at.Format("20060102_150405"), f)
}

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts csv, xlsx (or excel) and pdf. Blank means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// normalise pads or cuts every row to the header width.
func normalise(t *Table) {
	n := len(t.Columns)
	for i, row := range t.Rows {
		switch {
		case len(row) < n:
			padded := make([]string, n)
			copy(padded, row)
			t.Rows[i] = padded
		case len(row) > n:
			t.Rows[i] = row[:n]
		}
	}
}
