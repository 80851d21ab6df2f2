// Package calendar projects proposals, their tasks, and stored custom
// events into one flat event list. The projection is recomputed from the
// store snapshot on every read; derived entries are never persisted and
// vanish with their source.
package calendar

import (
	"time"

	"bidtrack/api/internal/store"
)

// Project returns one proposal-typed entry per proposal, one task-typed
// entry per task, and a passthrough entry per custom event. Ordering across
// types is not guaranteed; callers group by date.
func Project(proposals []store.Proposal, events []store.CalendarEvent) []store.CalendarEvent {
	out := make([]store.CalendarEvent, 0, len(proposals)+len(events))

	for _, p := range proposals {
		out = append(out, store.CalendarEvent{
			ID:         "cal_proposal_" + p.ID,
			Title:      p.Title + " due",
			Date:       p.DueDate,
			Type:       store.EventProposal,
			ProposalID: p.ID,
		})
		for _, t := range p.Tasks {
			out = append(out, store.CalendarEvent{
				ID:         "cal_task_" + t.ID,
				Title:      t.Title,
				Date:       t.DueDate,
				Type:       store.EventTask,
				ProposalID: p.ID,
			})
		}
	}

	out = append(out, events...)
	return out
}

// GroupByDate buckets entries under their calendar date (UTC, "2006-01-02").
func GroupByDate(entries []store.CalendarEvent) map[string][]store.CalendarEvent {
	grouped := make(map[string][]store.CalendarEvent)
	for _, e := range entries {
		key := e.Date.UTC().Format(time.DateOnly)
		grouped[key] = append(grouped[key], e)
	}
	return grouped
}
