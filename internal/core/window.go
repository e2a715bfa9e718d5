package core

import "time"

// DateLayout is the calendar date format used by the transaction query window.
const DateLayout = "2006-01-02"

// Window is the query range for one month, both ends inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the first and last instant of month in year, in loc.
func MonthWindow(year int, month time.Month, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Window{Start: start, End: end}
}

// From formats the window start as a calendar date.
func (w Window) From() string {
	return w.Start.Format(DateLayout)
}

// To formats the window end as a calendar date.
func (w Window) To() string {
	return w.End.Format(DateLayout)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// SameDay compares two instants by calendar day, ignoring time of day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
