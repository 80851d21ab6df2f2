// Package workflow defines the fixed proposal submission pipeline and the
// legality rules for moving a proposal between its stages.
package workflow

import "fmt"

type Status string

const (
	StatusIntake         Status = "intake"
	StatusOutline        Status = "outline"
	StatusDrafting       Status = "drafting"
	StatusInternalReview Status = "internal_review"
	StatusFinalReview    Status = "final_review"
	StatusSubmitted      Status = "submitted"
)

// ordered is the complete pipeline, intake first, submitted terminal.
var ordered = []Status{
	StatusIntake,
	StatusOutline,
	StatusDrafting,
	StatusInternalReview,
	StatusFinalReview,
	StatusSubmitted,
}

var indexOf = func() map[Status]int {
	m := make(map[Status]int, len(ordered))
	for i, s := range ordered {
		m[s] = i
	}
	return m
}()

// Statuses returns the pipeline stages in order.
func Statuses() []Status {
	out := make([]Status, len(ordered))
	copy(out, ordered)
	return out
}

func Valid(s Status) bool {
	_, ok := indexOf[s]
	return ok
}

// Parse validates a raw status string.
func Parse(raw string) (Status, error) {
	s := Status(raw)
	if !Valid(s) {
		return "", fmt.Errorf("unknown workflow status %q", raw)
	}
	return s, nil
}

// Next returns the stage immediately after s, or false if s is terminal.
func Next(s Status) (Status, bool) {
	i, ok := indexOf[s]
	if !ok || i == len(ordered)-1 {
		return "", false
	}
	return ordered[i+1], true
}

// Previous returns the stage immediately before s, or false if s is initial.
func Previous(s Status) (Status, bool) {
	i, ok := indexOf[s]
	if !ok || i == 0 {
		return "", false
	}
	return ordered[i-1], true
}

func IsTerminal(s Status) bool {
	return s == ordered[len(ordered)-1]
}

// CanTransition reports whether moving from one stage to another is legal.
// A proposal may only advance or fall back exactly one stage at a time, so
// the record of its transitions proves it passed through every review stage.
func CanTransition(from, to Status) bool {
	fi, ok := indexOf[from]
	if !ok {
		return false
	}
	ti, ok := indexOf[to]
	if !ok {
		return false
	}
	diff := ti - fi
	return diff == 1 || diff == -1
}
