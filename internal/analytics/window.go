package analytics

import (
	"fmt"
	"time"
)

// DefaultActivityDays is the look-back of the recent activity report.
const DefaultActivityDays = 7

// Window is a half-open [Start, End) time range in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDays returns the window ending at now and starting days earlier.
// Non-positive days fall back to DefaultActivityDays.
func LastDays(now time.Time, days int) Window {
	if days <= 0 {
		days = DefaultActivityDays
	}
	end := now.UTC()
	return Window{Start: end.AddDate(0, 0, -days), End: end}
}

// Days is the window length in whole days.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// Label renders the period the way the dashboards display it.
func (w Window) Label() string {
	return fmt.Sprintf("%d derniers jours", w.Days())
}
