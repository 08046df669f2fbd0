package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// "12", "12 pcs", "12.0", "12,00 unit"
	qtyRe   = regexp.MustCompile(`^([+-]?\d+)(?:[.,]0+)?(?:\s*[^\d\s.,][^\d]*)?$`)
	spaceRe = regexp.MustCompile(`\s+`)
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"20060102",
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"02/01/2006 15:04",
}

// ParseDate reads a calendar date. Blank input yields nil. The result is
// midnight UTC on that date.
func ParseDate(raw string) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	// Timestamps are accepted and truncated to their date.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d, nil
	}
	if len(s) > 10 && (s[10] == ' ' || s[10] == 'T') {
		s = s[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unable to parse date: %q", raw)
}

// ParseTimestamp reads a date-time. Values without an offset are interpreted
// in loc. Blank input yields nil.
func ParseTimestamp(raw string, loc *time.Location) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unable to parse timestamp: %q", raw)
}

// ParseQuantity reads a whole quantity, tolerating a trailing unit and a zero
// fraction as written by spreadsheets. Blank input yields 0.
func ParseQuantity(raw string) (int, error) {
	s := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	if s == "" {
		return 0, nil
	}
	m := qtyRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("unable to parse quantity: %q", raw)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("unable to parse quantity: %q", raw)
	}
	return n, nil
}

// ParseDecimal reads a money amount. A lone comma is taken as the decimal
// separator. Blank input yields zero.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount: %q", raw)
	}
	return d, nil
}

// ParseOptionalID reads a positive id. Blank input yields nil.
func ParseOptionalID(raw string) (*int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid id: %q", raw)
	}
	return &id, nil
}
