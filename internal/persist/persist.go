// Package persist serializes the store's collections to a durable key-value
// medium. Two independent records are kept: one for the proposal collection,
// one for the custom calendar events. Payloads are plain JSON with instants
// as RFC 3339 strings, decoded through an explicit validation step so a
// corrupt or drifted payload surfaces as an error instead of half-loaded
// state.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"bidtrack/api/internal/store"
	"bidtrack/api/internal/workflow"
)

const (
	keyProposals = "bidtrack:proposals"
	keyEvents    = "bidtrack:events"
)

// ErrNoRecord reports that the medium holds nothing under the record key.
var ErrNoRecord = errors.New("persist: record not found")

func encodeProposals(proposals []store.Proposal) ([]byte, error) {
	payload, err := json.Marshal(proposals)
	if err != nil {
		return nil, fmt.Errorf("encode proposals: %w", err)
	}
	return payload, nil
}

func decodeProposals(payload []byte) ([]store.Proposal, error) {
	var proposals []store.Proposal
	if err := json.Unmarshal(payload, &proposals); err != nil {
		return nil, fmt.Errorf("decode proposals: %w", err)
	}
	if err := validateProposals(proposals); err != nil {
		return nil, fmt.Errorf("validate proposals: %w", err)
	}
	return normalizeProposals(proposals), nil
}

func validateProposals(proposals []store.Proposal) error {
	for i, p := range proposals {
		if p.ID == "" {
			return fmt.Errorf("proposal %d: missing id", i)
		}
		if p.Title == "" {
			return fmt.Errorf("proposal %s: missing title", p.ID)
		}
		if p.Agency == "" {
			return fmt.Errorf("proposal %s: missing agency", p.ID)
		}
		if p.DueDate.IsZero() {
			return fmt.Errorf("proposal %s: missing dueDate", p.ID)
		}
		if !workflow.Valid(p.Status) {
			return fmt.Errorf("proposal %s: invalid status %q", p.ID, p.Status)
		}
		if !store.ValidProposalType(p.Type) {
			return fmt.Errorf("proposal %s: invalid type %q", p.ID, p.Type)
		}
		for j, task := range p.Tasks {
			if task.ID == "" {
				return fmt.Errorf("proposal %s: task %d missing id", p.ID, j)
			}
			if task.Title == "" {
				return fmt.Errorf("proposal %s: task %s missing title", p.ID, task.ID)
			}
		}
	}
	return nil
}

// normalizeProposals repairs what is safe to repair: task back-references
// always point at the owning proposal, and nil task/file slices become empty
// so the wire shape stays stable.
func normalizeProposals(proposals []store.Proposal) []store.Proposal {
	for i := range proposals {
		if proposals[i].Tasks == nil {
			proposals[i].Tasks = []store.Task{}
		}
		if proposals[i].Files == nil {
			proposals[i].Files = []store.FileMeta{}
		}
		for j := range proposals[i].Tasks {
			proposals[i].Tasks[j].ProposalID = proposals[i].ID
		}
	}
	return proposals
}

func encodeEvents(events []store.CalendarEvent) ([]byte, error) {
	payload, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode events: %w", err)
	}
	return payload, nil
}

func decodeEvents(payload []byte) ([]store.CalendarEvent, error) {
	var events []store.CalendarEvent
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	for i, e := range events {
		if e.ID == "" {
			return nil, fmt.Errorf("validate events: event %d missing id", i)
		}
		if e.Title == "" {
			return nil, fmt.Errorf("validate events: event %s missing title", e.ID)
		}
		if e.Date.IsZero() {
			return nil, fmt.Errorf("validate events: event %s missing date", e.ID)
		}
		// Only user-owned events are ever stored; derived entries leaking
		// into the record mean the payload was written by something else.
		if e.Type != store.EventCustom {
			return nil, fmt.Errorf("validate events: event %s has non-custom type %q", e.ID, e.Type)
		}
		if e.PushNotification && e.NotificationTime == nil {
			return nil, fmt.Errorf("validate events: event %s requests notification without a time", e.ID)
		}
	}
	return events, nil
}
