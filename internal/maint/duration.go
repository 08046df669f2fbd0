package maint

import (
	"math"
	"time"
)

// DurationHours is (end - start) in hours rounded to two decimals. A missing
// timestamp or an end before the start yields 0.
func DurationHours(start, end *time.Time) float64 {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return 0
	}
	if end.Before(*start) {
		return 0
	}
	return RoundHours(end.Sub(*start).Hours())
}

// RoundHours rounds to two decimals.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
