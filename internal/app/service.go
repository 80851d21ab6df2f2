package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sort"
	"time"

	"bidtrack/api/internal/archive"
	"bidtrack/api/internal/calendar"
	"bidtrack/api/internal/filestore"
	"bidtrack/api/internal/search"
	"bidtrack/api/internal/store"
	"bidtrack/api/internal/urgency"
	"bidtrack/api/internal/util"
	"bidtrack/api/internal/workflow"
)

// AttachFileInput is the upload payload: metadata plus base64 content.
type AttachFileInput struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Content  string `json:"content"`
}

// Service composes the store with the optional side services. Archive,
// search and file storage are best-effort: their failures are logged,
// never surfaced as operation failures. The store is the source of truth.
type Service struct {
	store      *store.Store
	search     *search.Service
	files      filestore.ContentStore
	archive    *archive.Service
	thresholds urgency.Thresholds
	now        func() time.Time
}

type ServiceOption func(*Service)

func WithSearch(s *search.Service) ServiceOption {
	return func(svc *Service) { svc.search = s }
}

func WithFiles(f filestore.ContentStore) ServiceOption {
	return func(svc *Service) { svc.files = f }
}

func WithArchive(a *archive.Service) ServiceOption {
	return func(svc *Service) { svc.archive = a }
}

func WithThresholds(t urgency.Thresholds) ServiceOption {
	return func(svc *Service) { svc.thresholds = t }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(svc *Service) { svc.now = now }
}

func NewService(st *store.Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store:      st,
		files:      filestore.NewInlineStore(),
		thresholds: urgency.DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListProposals returns every proposal with derived urgency and overdue
// flags attached.
func (s *Service) ListProposals() []map[string]any {
	now := s.now()
	proposals := s.store.ListProposals()
	items := make([]map[string]any, 0, len(proposals))
	for _, p := range proposals {
		items = append(items, s.proposalView(p, now))
	}
	return items
}

func (s *Service) GetProposal(id string) (map[string]any, error) {
	p, err := s.store.GetProposal(id)
	if err != nil {
		return nil, err
	}
	return s.proposalView(p, s.now()), nil
}

func (s *Service) CreateProposal(ctx context.Context, draft store.ProposalDraft) (map[string]any, error) {
	p, err := s.store.AddProposal(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.recordArchive(p, "Create proposal "+p.ID)
	s.indexProposal(p)
	return s.proposalView(p, s.now()), nil
}

func (s *Service) UpdateProposal(ctx context.Context, id string, patch store.ProposalPatch) (map[string]any, error) {
	p, err := s.store.UpdateProposal(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.recordArchive(p, "Update proposal "+p.ID)
	s.indexProposal(p)
	return s.proposalView(p, s.now()), nil
}

// DeleteProposal removes the proposal and everything hanging off it:
// tasks and events go with the store's cascade, file content and search
// entries are cleaned up here.
func (s *Service) DeleteProposal(ctx context.Context, id string) error {
	removed, err := s.store.DeleteProposal(ctx, id)
	if err != nil {
		return err
	}
	for _, f := range removed.Files {
		if err := s.files.Delete(ctx, f.Reference); err != nil {
			log.Printf("app: delete file content %s: %v", f.ID, err)
		}
	}
	if s.search != nil {
		s.search.DeleteProposal(removed.ID)
		for _, t := range removed.Tasks {
			s.search.DeleteTask(t.ID)
		}
	}
	if s.archive != nil {
		if _, err := s.archive.RecordDeletion(removed.ID, "Delete proposal "+removed.ID); err != nil {
			log.Printf("app: archive deletion of %s: %v", removed.ID, err)
		}
	}
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (map[string]any, error) {
	p, err := s.store.UpdateProposalStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.recordArchive(p, fmt.Sprintf("Move proposal %s to %s", p.ID, p.Status))
	s.indexProposal(p)
	return s.proposalView(p, s.now()), nil
}

func (s *Service) AddTask(ctx context.Context, proposalID string, draft store.TaskDraft) (map[string]any, error) {
	t, err := s.store.AddTask(ctx, proposalID, draft)
	if err != nil {
		return nil, err
	}
	s.afterTaskChange(proposalID)
	if s.search != nil {
		s.search.IndexTask(taskRecord(t))
	}
	return taskView(t), nil
}

func (s *Service) UpdateTask(ctx context.Context, proposalID, taskID string, patch store.TaskPatch) (map[string]any, error) {
	t, err := s.store.UpdateTask(ctx, proposalID, taskID, patch)
	if err != nil {
		return nil, err
	}
	s.afterTaskChange(proposalID)
	if s.search != nil {
		s.search.IndexTask(taskRecord(t))
	}
	return taskView(t), nil
}

func (s *Service) DeleteTask(ctx context.Context, proposalID, taskID string) error {
	if err := s.store.DeleteTask(ctx, proposalID, taskID); err != nil {
		return err
	}
	s.afterTaskChange(proposalID)
	if s.search != nil {
		s.search.DeleteTask(taskID)
	}
	return nil
}

// AttachFile stores the decoded content first, then the metadata. A
// content-store failure aborts the upload before the proposal changes.
func (s *Service) AttachFile(ctx context.Context, proposalID string, input AttachFileInput) (store.FileMeta, error) {
	data, err := base64.StdEncoding.DecodeString(input.Content)
	if err != nil {
		return store.FileMeta{}, &store.DomainError{Kind: store.KindValidation, Message: "file content is not valid base64"}
	}

	name := util.NewID("obj") + "/" + input.Filename
	reference, err := s.files.Put(ctx, name, input.Type, data)
	if err != nil {
		return store.FileMeta{}, fmt.Errorf("storing file content: %w", err)
	}

	meta, err := s.store.AddFile(ctx, proposalID, store.FileDraft{
		Filename:  input.Filename,
		Type:      input.Type,
		Size:      int64(len(data)),
		Reference: reference,
	})
	if err != nil {
		if delErr := s.files.Delete(ctx, reference); delErr != nil {
			log.Printf("app: orphaned file content %s: %v", reference, delErr)
		}
		return store.FileMeta{}, err
	}
	s.afterTaskChange(proposalID)
	return meta, nil
}

func (s *Service) DeleteFile(ctx context.Context, proposalID, fileID string) error {
	removed, err := s.store.DeleteFile(ctx, proposalID, fileID)
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, removed.Reference); err != nil {
		log.Printf("app: delete file content %s: %v", removed.ID, err)
	}
	s.afterTaskChange(proposalID)
	return nil
}

// History returns the proposal's audit trail, newest first.
func (s *Service) History(id string, limit int) ([]archive.CommitInfo, error) {
	if _, err := s.store.GetProposal(id); err != nil {
		if !store.IsNotFound(err) {
			return nil, err
		}
		// Deleted proposals still have history; unknown ids surface as
		// an empty trail from the archive itself.
	}
	if s.archive == nil {
		return []archive.CommitInfo{}, nil
	}
	return s.archive.History(id, limit)
}

func (s *Service) ListEvents() []store.CalendarEvent {
	return s.store.ListEvents()
}

func (s *Service) CreateEvent(ctx context.Context, draft store.EventDraft) (store.CalendarEvent, error) {
	return s.store.AddEvent(ctx, draft)
}

func (s *Service) UpdateEvent(ctx context.Context, id string, patch store.EventPatch) (store.CalendarEvent, error) {
	return s.store.UpdateEvent(ctx, id, patch)
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	return s.store.DeleteEvent(ctx, id)
}

// Calendar returns the full projection grouped by date.
func (s *Service) Calendar() map[string]any {
	entries := calendar.Project(s.store.ListProposals(), s.store.ListEvents())
	grouped := calendar.GroupByDate(entries)

	days := make([]string, 0, len(grouped))
	for day := range grouped {
		days = append(days, day)
	}
	sort.Strings(days)

	return map[string]any{
		"days":    days,
		"entries": grouped,
		"total":   len(entries),
	}
}

// Search queries the search facade; without one it reports an empty result.
func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// Summary is the dashboard rollup: counts per status, overdue count with
// submitted proposals suppressed, and the next deadlines.
func (s *Service) Summary() map[string]any {
	now := s.now()
	proposals := s.store.ListProposals()

	byStatus := make(map[string]int, len(workflow.Statuses()))
	for _, st := range workflow.Statuses() {
		byStatus[string(st)] = 0
	}

	overdue := 0
	upcoming := make([]map[string]any, 0)
	for _, p := range proposals {
		byStatus[string(p.Status)]++
		if p.Status == workflow.StatusSubmitted {
			continue
		}
		if urgency.IsOverdue(p.DueDate, now) {
			overdue++
			continue
		}
		upcoming = append(upcoming, map[string]any{
			"id":      p.ID,
			"title":   p.Title,
			"agency":  p.Agency,
			"dueDate": p.DueDate,
			"urgency": string(s.thresholds.Classify(p.DueDate, now)),
		})
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i]["dueDate"].(time.Time).Before(upcoming[j]["dueDate"].(time.Time))
	})
	if len(upcoming) > 5 {
		upcoming = upcoming[:5]
	}

	return map[string]any{
		"total":    len(proposals),
		"byStatus": byStatus,
		"overdue":  overdue,
		"upcoming": upcoming,
	}
}

// ReindexSearch pushes the whole collection into the search backend.
// Called once at startup.
func (s *Service) ReindexSearch() {
	if s.search == nil {
		return
	}
	proposals := s.store.ListProposals()
	records := make([]search.ProposalRecord, 0, len(proposals))
	var tasks []search.TaskRecord
	for _, p := range proposals {
		records = append(records, proposalRecord(p))
		for _, t := range p.Tasks {
			tasks = append(tasks, taskRecord(t))
		}
	}
	s.search.ReindexAll(records, tasks)
}

func (s *Service) proposalView(p store.Proposal, now time.Time) map[string]any {
	tasks := make([]map[string]any, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		tasks = append(tasks, taskView(t))
	}

	return map[string]any{
		"id":        p.ID,
		"title":     p.Title,
		"agency":    p.Agency,
		"dueDate":   p.DueDate,
		"status":    string(p.Status),
		"type":      string(p.Type),
		"notes":     p.Notes,
		"tasks":     tasks,
		"files":     p.Files,
		"createdAt": p.CreatedAt,
		"updatedAt": p.UpdatedAt,
		"urgency":   string(s.thresholds.Classify(p.DueDate, now)),
		"overdue":   urgency.IsOverdue(p.DueDate, now),
	}
}

func taskView(t store.Task) map[string]any {
	return map[string]any{
		"id":         t.ID,
		"proposalId": t.ProposalID,
		"title":      t.Title,
		"owner":      t.Owner,
		"dueDate":    t.DueDate,
		"status":     string(t.Status),
		"completed":  t.Completed(),
		"createdAt":  t.CreatedAt,
	}
}

// afterTaskChange re-archives and re-indexes the owning proposal after
// any nested mutation.
func (s *Service) afterTaskChange(proposalID string) {
	p, err := s.store.GetProposal(proposalID)
	if err != nil {
		return
	}
	s.recordArchive(p, "Update proposal "+p.ID)
	s.indexProposal(p)
}

func (s *Service) recordArchive(p store.Proposal, message string) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Record(p, message); err != nil {
		log.Printf("app: archive %s: %v", p.ID, err)
	}
}

func (s *Service) indexProposal(p store.Proposal) {
	if s.search == nil {
		return
	}
	s.search.IndexProposal(proposalRecord(p))
}

func proposalRecord(p store.Proposal) search.ProposalRecord {
	return search.ProposalRecord{
		ID:     p.ID,
		Title:  p.Title,
		Agency: p.Agency,
		Notes:  p.Notes,
		Status: string(p.Status),
		Type:   string(p.Type),
	}
}

func taskRecord(t store.Task) search.TaskRecord {
	return search.TaskRecord{
		ID:         t.ID,
		Title:      t.Title,
		ProposalID: t.ProposalID,
		Status:     string(t.Status),
	}
}
