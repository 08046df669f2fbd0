// Package maint holds the bookkeeping rules of the maintenance system: work
// order numbering, stock arithmetic, durations, PM due dates and the dashboard
// projections. Nothing here touches the store.
package maint

import (
	"fmt"
	"time"
)

// FormatWONumber renders WO-YYYYMMDD-NNN for the given day and sequence.
func FormatWONumber(day time.Time, seq int) string {
	return fmt.Sprintf("WO-%s-%03d", day.Format("20060102"), seq)
}

// NextWONumber returns the number for the next work order created on day when
// createdToday work orders already exist for it.
func NextWONumber(day time.Time, createdToday int64) string {
	return FormatWONumber(day, int(createdToday)+1)
}

// DayBounds returns the half-open interval [start, end) covering the calendar
// day of t in loc, expressed in UTC.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}
