package archive

import (
	"testing"
	"time"

	"bidtrack/api/internal/store"
	"bidtrack/api/internal/workflow"
)

func testProposal(id string) store.Proposal {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	return store.Proposal{
		ID:        id,
		Title:     "Fleet maintenance recompete",
		Agency:    "GSA",
		DueDate:   now.AddDate(0, 2, 0),
		Status:    workflow.StatusIntake,
		Type:      store.TypeGSA,
		Tasks:     []store.Task{},
		Files:     []store.FileMeta{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRecordAndHistory(t *testing.T) {
	svc, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p := testProposal("prop_a")
	if _, err := svc.Record(p, "Create proposal"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	p.Status = workflow.StatusOutline
	info, err := svc.Record(p, "Advance to outline")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if info.Hash == "" || info.Author != "Bidtrack" {
		t.Errorf("unexpected commit info %+v", info)
	}

	history, err := svc.History("prop_a", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(history))
	}
	if history[0].Message != "Advance to outline" || history[1].Message != "Create proposal" {
		t.Errorf("history out of order: %+v", history)
	}

	// A negative limit reads as "no limit", same as zero.
	history, err = svc.History("prop_a", -1)
	if err != nil {
		t.Fatalf("History with negative limit failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("negative limit returned %d commits, want 2", len(history))
	}
}

func TestHistoryIsPerProposal(t *testing.T) {
	svc, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := svc.Record(testProposal("prop_a"), "Create A"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := svc.Record(testProposal("prop_b"), "Create B"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	history, err := svc.History("prop_b", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].Message != "Create B" {
		t.Errorf("expected only B's commit, got %+v", history)
	}
}

func TestSnapshotReadsRecordedState(t *testing.T) {
	svc, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p := testProposal("prop_a")
	first, err := svc.Record(p, "Create proposal")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	p.Status = workflow.StatusOutline
	if _, err := svc.Record(p, "Advance to outline"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	old, err := svc.Snapshot("prop_a", first.Hash)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if old.Status != workflow.StatusIntake {
		t.Errorf("snapshot status = %s, want intake", old.Status)
	}
}

func TestRecordDeletion(t *testing.T) {
	svc, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := svc.Record(testProposal("prop_a"), "Create proposal"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := svc.RecordDeletion("prop_a", "Delete proposal"); err != nil {
		t.Fatalf("RecordDeletion failed: %v", err)
	}

	history, err := svc.History("prop_a", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 || history[0].Message != "Delete proposal" {
		t.Errorf("history after deletion: %+v", history)
	}
}

func TestIdempotentInit(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(dir); err != nil {
		t.Fatalf("first New failed: %v", err)
	}
	svc, err := New(dir)
	if err != nil {
		t.Fatalf("second New failed: %v", err)
	}
	if _, err := svc.Record(testProposal("prop_a"), "Create proposal"); err != nil {
		t.Fatalf("Record after reopen failed: %v", err)
	}
}
