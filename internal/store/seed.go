package store

import (
	"time"

	"bidtrack/api/internal/workflow"
)

// SeedProposals is the example dataset loaded when the persisted collection
// is missing or fails validation. Dates are pinned relative to now so the
// board always shows a plausible mix of urgencies.
func SeedProposals(now time.Time) []Proposal {
	created := now.Add(-21 * 24 * time.Hour)
	return []Proposal{
		{
			ID:      "prop_seed_nexus",
			Title:   "NEXUS IT Modernization Support",
			Agency:  "Department of Veterans Affairs",
			DueDate: now.Add(5 * 24 * time.Hour),
			Status:  workflow.StatusDrafting,
			Type:    TypeRFP,
			Notes:   "Incumbent rebid. Past performance volume needs two fresh CPARS references.",
			Tasks: []Task{
				{
					ID:         "task_seed_nexus_pp",
					ProposalID: "prop_seed_nexus",
					Title:      "Collect past performance references",
					Owner:      "D. Okafor",
					DueDate:    now.Add(2 * 24 * time.Hour),
					Status:     TaskInProgress,
					CreatedAt:  created,
				},
				{
					ID:         "task_seed_nexus_tech",
					ProposalID: "prop_seed_nexus",
					Title:      "Draft technical approach section",
					Owner:      "M. Reyes",
					DueDate:    now.Add(3 * 24 * time.Hour),
					Status:     TaskPending,
					CreatedAt:  created,
				},
			},
			Files:     []FileMeta{},
			CreatedAt: created,
			UpdatedAt: now.Add(-2 * 24 * time.Hour),
		},
		{
			ID:      "prop_seed_coastal",
			Title:   "Coastal Resilience Data Platform",
			Agency:  "NOAA",
			DueDate: now.Add(18 * 24 * time.Hour),
			Status:  workflow.StatusOutline,
			Type:    TypeSBIR,
			Notes:   "Phase II. Budget narrative capped at 15 pages.",
			Tasks: []Task{
				{
					ID:         "task_seed_coastal_budget",
					ProposalID: "prop_seed_coastal",
					Title:      "Build cost volume skeleton",
					Owner:      "J. Lindqvist",
					DueDate:    now.Add(10 * 24 * time.Hour),
					Status:     TaskPending,
					CreatedAt:  created,
				},
			},
			Files:     []FileMeta{},
			CreatedAt: created,
			UpdatedAt: now.Add(-6 * 24 * time.Hour),
		},
		{
			ID:        "prop_seed_logistics",
			Title:     "Regional Logistics Support Services",
			Agency:    "Defense Logistics Agency",
			DueDate:   now.Add(40 * 24 * time.Hour),
			Status:    workflow.StatusIntake,
			Type:      TypeIDIQ,
			Notes:     "",
			Tasks:     []Task{},
			Files:     []FileMeta{},
			CreatedAt: now.Add(-1 * 24 * time.Hour),
			UpdatedAt: now.Add(-1 * 24 * time.Hour),
		},
	}
}

// SeedEvents provides one example custom deadline alongside the proposals.
func SeedEvents(now time.Time) []CalendarEvent {
	reminder := now.Add(4 * 24 * time.Hour)
	return []CalendarEvent{
		{
			ID:               "evt_seed_industry_day",
			Title:            "GSA Alliant 3 industry day",
			Date:             now.Add(7 * 24 * time.Hour),
			Type:             EventCustom,
			PushNotification: true,
			NotificationTime: &reminder,
		},
	}
}
