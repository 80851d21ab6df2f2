package app

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"bidtrack/api/internal/store"
	"bidtrack/api/internal/urgency"
)

// fakePersister backs the real store in tests; per-method hooks let
// individual tests inject failures.
type fakePersister struct {
	saveProposalsFn func(context.Context, []store.Proposal) error
	saveEventsFn    func(context.Context, []store.CalendarEvent) error
	pingFn          func(context.Context) error
}

func (f *fakePersister) SaveProposals(ctx context.Context, proposals []store.Proposal) error {
	if f.saveProposalsFn != nil {
		return f.saveProposalsFn(ctx, proposals)
	}
	return nil
}

func (f *fakePersister) LoadProposals(context.Context) ([]store.Proposal, error) {
	return []store.Proposal{}, nil
}

func (f *fakePersister) SaveEvents(ctx context.Context, events []store.CalendarEvent) error {
	if f.saveEventsFn != nil {
		return f.saveEventsFn(ctx, events)
	}
	return nil
}

func (f *fakePersister) LoadEvents(context.Context) ([]store.CalendarEvent, error) {
	return []store.CalendarEvent{}, nil
}

func (f *fakePersister) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

var testNow = time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, fp *fakePersister) *Service {
	t.Helper()
	st := store.New(fp, store.WithClock(func() time.Time { return testNow }))
	st.Load(context.Background())
	return NewService(st, WithClock(func() time.Time { return testNow }))
}

func mustCreate(t *testing.T, svc *Service, draft store.ProposalDraft) map[string]any {
	t.Helper()
	payload, err := svc.CreateProposal(context.Background(), draft)
	if err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}
	return payload
}

func TestProposalViewCarriesDerivedFields(t *testing.T) {
	svc := newTestService(t, &fakePersister{})

	payload := mustCreate(t, svc, store.ProposalDraft{
		Title:   "Weather modeling support",
		Agency:  "NOAA",
		DueDate: "2025-01-12",
	})

	if payload["urgency"] != "critical" {
		t.Errorf("urgency = %v, want critical", payload["urgency"])
	}
	if payload["overdue"] != false {
		t.Errorf("overdue = %v, want false", payload["overdue"])
	}

	past := mustCreate(t, svc, store.ProposalDraft{
		Title:   "Expired opportunity",
		Agency:  "DLA",
		DueDate: "2025-01-09",
	})
	if past["urgency"] != "critical" || past["overdue"] != true {
		t.Errorf("past-due view = urgency %v overdue %v", past["urgency"], past["overdue"])
	}
}

func TestDerivedFieldsRespectThresholds(t *testing.T) {
	fp := &fakePersister{}
	st := store.New(fp, store.WithClock(func() time.Time { return testNow }))
	st.Load(context.Background())
	svc := NewService(st,
		WithClock(func() time.Time { return testNow }),
		WithThresholds(urgency.Thresholds{CriticalDays: 1, HighDays: 3, MediumDays: 5}))

	payload := mustCreate(t, svc, store.ProposalDraft{
		Title:   "Custom thresholds",
		Agency:  "GSA",
		DueDate: "2025-01-13",
	})
	if payload["urgency"] != "high" {
		t.Errorf("urgency = %v, want high under tightened thresholds", payload["urgency"])
	}
}

func TestSummarySuppressesSubmittedOverdue(t *testing.T) {
	svc := newTestService(t, &fakePersister{})
	ctx := context.Background()

	mustCreate(t, svc, store.ProposalDraft{
		Title: "Open and overdue", Agency: "VA", DueDate: "2025-01-05",
	})
	submitted := mustCreate(t, svc, store.ProposalDraft{
		Title: "Submitted and past due", Agency: "VA", DueDate: "2025-01-05",
	})
	id := submitted["id"].(string)
	for _, next := range []string{"outline", "drafting", "internal_review", "final_review", "submitted"} {
		if _, err := svc.UpdateStatus(ctx, id, next); err != nil {
			t.Fatalf("UpdateStatus to %s failed: %v", next, err)
		}
	}
	mustCreate(t, svc, store.ProposalDraft{
		Title: "Future work", Agency: "NOAA", DueDate: "2025-03-01",
	})

	summary := svc.Summary()
	if summary["total"] != 3 {
		t.Errorf("total = %v, want 3", summary["total"])
	}
	if summary["overdue"] != 1 {
		t.Errorf("overdue = %v, want 1 (submitted proposal suppressed)", summary["overdue"])
	}
	byStatus := summary["byStatus"].(map[string]int)
	if byStatus["submitted"] != 1 || byStatus["intake"] != 2 {
		t.Errorf("byStatus = %v", byStatus)
	}
	upcoming := summary["upcoming"].([]map[string]any)
	if len(upcoming) != 1 || upcoming[0]["title"] != "Future work" {
		t.Errorf("upcoming = %v", upcoming)
	}
}

func TestCalendarGroupsEverything(t *testing.T) {
	svc := newTestService(t, &fakePersister{})
	ctx := context.Background()

	p := mustCreate(t, svc, store.ProposalDraft{
		Title: "Recompete", Agency: "GSA", DueDate: "2025-02-01",
	})
	id := p["id"].(string)
	if _, err := svc.AddTask(ctx, id, store.TaskDraft{Title: "Outline", DueDate: "2025-01-20"}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := svc.CreateEvent(ctx, store.EventDraft{Title: "Industry day", Date: "2025-02-01"}); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	cal := svc.Calendar()
	if cal["total"] != 3 {
		t.Errorf("total = %v, want 3", cal["total"])
	}
	grouped := cal["entries"].(map[string][]store.CalendarEvent)
	if len(grouped["2025-02-01"]) != 2 {
		t.Errorf("2025-02-01 has %d entries, want proposal deadline plus event", len(grouped["2025-02-01"]))
	}
	if len(grouped["2025-01-20"]) != 1 {
		t.Errorf("2025-01-20 has %d entries, want the task", len(grouped["2025-01-20"]))
	}
}

func TestAttachFileInline(t *testing.T) {
	svc := newTestService(t, &fakePersister{})
	ctx := context.Background()

	p := mustCreate(t, svc, store.ProposalDraft{
		Title: "With attachment", Agency: "VA", DueDate: "2025-02-01",
	})
	id := p["id"].(string)

	content := []byte("past performance writeup")
	meta, err := svc.AttachFile(ctx, id, AttachFileInput{
		Filename: "past-performance.txt",
		Type:     "text/plain",
		Content:  base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		t.Fatalf("AttachFile failed: %v", err)
	}
	if meta.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", meta.Size, len(content))
	}
	if meta.Reference == "" {
		t.Error("expected a content reference")
	}

	if err := svc.DeleteFile(ctx, id, meta.ID); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	got, err := svc.GetProposal(id)
	if err != nil {
		t.Fatalf("GetProposal failed: %v", err)
	}
	if files := got["files"].([]store.FileMeta); len(files) != 0 {
		t.Errorf("files after delete = %v", files)
	}
}

func TestAttachFileRejectsBadBase64(t *testing.T) {
	svc := newTestService(t, &fakePersister{})
	p := mustCreate(t, svc, store.ProposalDraft{
		Title: "Bad upload", Agency: "VA", DueDate: "2025-02-01",
	})

	_, err := svc.AttachFile(context.Background(), p["id"].(string), AttachFileInput{
		Filename: "x.bin",
		Content:  "not base64 !!!",
	})
	if !store.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDeleteProposalSurfacesPersistenceFailure(t *testing.T) {
	boom := errors.New("redis gone")
	fp := &fakePersister{}
	svc := newTestService(t, fp)

	p := mustCreate(t, svc, store.ProposalDraft{
		Title: "Doomed", Agency: "VA", DueDate: "2025-02-01",
	})

	fp.saveProposalsFn = func(context.Context, []store.Proposal) error { return boom }
	err := svc.DeleteProposal(context.Background(), p["id"].(string))
	if !store.IsPersistence(err) {
		t.Errorf("expected persistence error, got %v", err)
	}

	// The snapshot must be untouched after the failed save.
	fp.saveProposalsFn = nil
	if _, err := svc.GetProposal(p["id"].(string)); err != nil {
		t.Errorf("proposal vanished after failed delete: %v", err)
	}
}
