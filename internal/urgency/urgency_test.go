package urgency

import (
	"testing"
	"time"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassifyBoundaries(t *testing.T) {
	thresholds := DefaultThresholds()
	now := day("2025-01-10")

	cases := []struct {
		due  string
		want Level
	}{
		{"2025-01-10", Critical}, // due today
		{"2025-01-12", Critical}, // inclusive critical edge
		{"2025-01-13", High},
		{"2025-01-17", High}, // inclusive high edge
		{"2025-01-18", Medium},
		{"2025-01-24", Medium}, // inclusive medium edge
		{"2025-01-25", Low},
		{"2025-01-09", Critical}, // past due
		{"2024-06-01", Critical}, // long past due
	}
	for _, tc := range cases {
		if got := thresholds.Classify(day(tc.due), now); got != tc.want {
			t.Errorf("Classify(%s) = %s, want %s", tc.due, got, tc.want)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	now := day("2025-01-10")
	if !IsOverdue(day("2025-01-09"), now) {
		t.Error("yesterday should be overdue")
	}
	if IsOverdue(day("2025-01-12"), now) {
		t.Error("a future date should not be overdue")
	}
	if IsOverdue(now, now) {
		t.Error("the exact due instant is not yet overdue")
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	thresholds := DefaultThresholds()
	now := time.Date(2025, 1, 10, 23, 45, 0, 0, time.UTC)
	due := time.Date(2025, 1, 12, 0, 15, 0, 0, time.UTC)
	// 2 calendar days out even though less than 48 hours remain.
	if got := thresholds.Classify(due, now); got != Critical {
		t.Errorf("Classify = %s, want critical", got)
	}
}

func TestCustomThresholds(t *testing.T) {
	tight := Thresholds{CriticalDays: 0, HighDays: 1, MediumDays: 3}
	now := day("2025-01-10")
	if got := tight.Classify(day("2025-01-10"), now); got != Critical {
		t.Errorf("same-day with zero window = %s, want critical", got)
	}
	if got := tight.Classify(day("2025-01-11"), now); got != High {
		t.Errorf("next day = %s, want high", got)
	}
	if got := tight.Classify(day("2025-01-13"), now); got != Medium {
		t.Errorf("three days = %s, want medium", got)
	}
}
