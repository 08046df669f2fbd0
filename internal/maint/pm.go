package maint

import (
	"time"

	"cmms-backend/internal/model"
)

// CivilDate strips the clock from t, keeping the calendar date as seen in t's
// own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CivilDate(now.In(loc))
}

// IsDue reports whether the plan's next due date is on or before today.
func IsDue(plan model.PMPlan, today time.Time) bool {
	return !CivilDate(plan.NextDueDate).After(CivilDate(today))
}

// NextDueAfter is the next due date for a plan completed on done.
func NextDueAfter(done time.Time, frequencyDays int) time.Time {
	return CivilDate(done).AddDate(0, 0, frequencyDays)
}
