// Package workdays counts working days between calendar dates.
package workdays

import "time"

// Between returns the number of working days in the inclusive range
// [start, end]. A working day is any Monday through Friday; no holiday
// calendar is applied. The computation uses calendar dates only, so the
// result is independent of the time-of-day and timezone of the inputs.
//
// When end precedes start the range is empty and the result is 0. That
// degradation is deliberate: callers probe elapsed time with arbitrary
// user-supplied dates and a future application date must not fail the
// request.
func Between(start, end time.Time) int {
	current := dateOnly(start)
	last := dateOnly(end)

	days := 0
	for !current.After(last) {
		switch current.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
		current = current.AddDate(0, 0, 1)
	}
	return days
}

// dateOnly strips the clock and timezone from t.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
