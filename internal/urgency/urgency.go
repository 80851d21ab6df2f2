// Package urgency classifies how close a due date is to the present.
package urgency

import "time"

type Level string

const (
	Critical Level = "critical"
	High     Level = "high"
	Medium   Level = "medium"
	Low      Level = "low"
)

// Thresholds are the day windows for each level, counted in calendar days
// from "now". A due date past now is always critical.
type Thresholds struct {
	CriticalDays int
	HighDays     int
	MediumDays   int
}

func DefaultThresholds() Thresholds {
	return Thresholds{CriticalDays: 2, HighDays: 7, MediumDays: 14}
}

// Classify maps a due date to an urgency level. The critical window is
// inclusive (due today or within CriticalDays), the high and medium windows
// pick up where the previous one ends.
func (t Thresholds) Classify(due, now time.Time) Level {
	days := daysUntil(due, now)
	switch {
	case days <= t.CriticalDays:
		return Critical
	case days <= t.HighDays:
		return High
	case days <= t.MediumDays:
		return Medium
	default:
		return Low
	}
}

// IsOverdue reports whether the due instant has passed. It is independent of
// urgency level and of workflow status; callers decide whether a submitted
// proposal should suppress the flag for their context.
func IsOverdue(due, now time.Time) bool {
	return due.Before(now)
}

// daysUntil counts whole calendar days between the two instants' dates.
// Negative when the due date is in the past.
func daysUntil(due, now time.Time) int {
	d := dateOnly(due)
	n := dateOnly(now)
	return int(d.Sub(n) / (24 * time.Hour))
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
