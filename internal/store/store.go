// Package store owns the proposal and calendar-event collections and
// enforces their lifecycle invariants. Every mutating operation validates
// its input, issues exactly one whole-collection persistence write, and only
// then commits the new snapshot, so readers never observe a half-applied
// change and a successful return guarantees the write was requested.
package store

import (
	"context"
	"log"
	"sync"
	"time"

	"bidtrack/api/internal/util"
	"bidtrack/api/internal/workflow"
)

// Persister is the durable key-value medium behind the store. Each Save call
// replaces the full serialized collection under its record key.
type Persister interface {
	SaveProposals(ctx context.Context, proposals []Proposal) error
	LoadProposals(ctx context.Context) ([]Proposal, error)
	SaveEvents(ctx context.Context, events []CalendarEvent) error
	LoadEvents(ctx context.Context) ([]CalendarEvent, error)
	Ping(ctx context.Context) error
}

type Store struct {
	persister Persister
	now       func() time.Time

	mu        sync.Mutex
	proposals []Proposal
	events    []CalendarEvent
}

type Option func(*Store)

// WithClock overrides the store's clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(persister Persister, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load populates the snapshot from the persister. A missing, corrupt, or
// invalid record falls back to the seed dataset, which is persisted right
// away; the store must come up with data no matter what the medium holds.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposals, err := s.persister.LoadProposals(ctx)
	if err != nil {
		log.Printf("store: proposal load failed, seeding example data: %v", err)
		proposals = SeedProposals(s.now())
		if saveErr := s.persister.SaveProposals(ctx, proposals); saveErr != nil {
			log.Printf("store: persisting seed proposals failed: %v", saveErr)
		}
	}
	events, err := s.persister.LoadEvents(ctx)
	if err != nil {
		log.Printf("store: event load failed, seeding example data: %v", err)
		events = SeedEvents(s.now())
		if saveErr := s.persister.SaveEvents(ctx, events); saveErr != nil {
			log.Printf("store: persisting seed events failed: %v", saveErr)
		}
	}

	s.proposals = proposals
	s.events = events
}

func (s *Store) Ping(ctx context.Context) error {
	return s.persister.Ping(ctx)
}

// ProposalDraft carries the caller-supplied fields for a new proposal.
// DueDate is the raw wire value; the store owns parsing it.
type ProposalDraft struct {
	Title   string `json:"title"`
	Agency  string `json:"agency"`
	DueDate string `json:"dueDate"`
	Type    string `json:"type"`
	Notes   string `json:"notes"`
}

// ProposalPatch holds a partial update; nil fields are left untouched.
type ProposalPatch struct {
	Title   *string `json:"title"`
	Agency  *string `json:"agency"`
	DueDate *string `json:"dueDate"`
	Type    *string `json:"type"`
	Notes   *string `json:"notes"`
}

type TaskDraft struct {
	Title   string `json:"title"`
	Owner   string `json:"owner"`
	DueDate string `json:"dueDate"`
}

type TaskPatch struct {
	Title   *string `json:"title"`
	Owner   *string `json:"owner"`
	DueDate *string `json:"dueDate"`
	Status  *string `json:"status"`
}

type EventDraft struct {
	Title            string `json:"title"`
	Date             string `json:"date"`
	ProposalID       string `json:"proposalId"`
	PushNotification bool   `json:"pushNotification"`
	NotificationTime string `json:"notificationTime"`
}

type EventPatch struct {
	Title            *string `json:"title"`
	Date             *string `json:"date"`
	ProposalID       *string `json:"proposalId"`
	PushNotification *bool   `json:"pushNotification"`
	NotificationTime *string `json:"notificationTime"`
}

type FileDraft struct {
	Filename  string `json:"filename"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	Reference string `json:"reference"`
}

// instantFormats are the accepted wire encodings for due dates and
// notification times: full RFC 3339 or a bare calendar date.
var instantFormats = []string{time.RFC3339, "2006-01-02"}

func parseInstant(raw string) (time.Time, bool) {
	for _, layout := range instantFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (s *Store) AddProposal(ctx context.Context, draft ProposalDraft) (Proposal, error) {
	if draft.Title == "" {
		return Proposal{}, validationError("title is required")
	}
	if draft.Agency == "" {
		return Proposal{}, validationError("agency is required")
	}
	if draft.DueDate == "" {
		return Proposal{}, validationError("dueDate is required")
	}
	due, ok := parseInstant(draft.DueDate)
	if !ok {
		return Proposal{}, validationError("dueDate %q is not a valid instant", draft.DueDate)
	}
	proposalType := TypeOther
	if draft.Type != "" {
		proposalType = ProposalType(draft.Type)
		if !ValidProposalType(proposalType) {
			return Proposal{}, validationError("type %q is not a valid proposal category", draft.Type)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	proposal := Proposal{
		ID:        util.NewID("prop"),
		Title:     draft.Title,
		Agency:    draft.Agency,
		DueDate:   due,
		Status:    workflow.StatusIntake,
		Type:      proposalType,
		Notes:     draft.Notes,
		Tasks:     []Task{},
		Files:     []FileMeta{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	next := append(cloneProposals(s.proposals), proposal)
	if err := s.persister.SaveProposals(ctx, next); err != nil {
		return Proposal{}, persistenceError("save proposals", err)
	}
	s.proposals = next
	return cloneProposal(proposal), nil
}

func (s *Store) UpdateProposal(ctx context.Context, id string, patch ProposalPatch) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneProposals(s.proposals)
	i := indexOfProposal(next, id)
	if i < 0 {
		return Proposal{}, notFoundError("proposal %s not found", id)
	}
	p := &next[i]

	if patch.Title != nil {
		if *patch.Title == "" {
			return Proposal{}, validationError("title cannot be blank")
		}
		p.Title = *patch.Title
	}
	if patch.Agency != nil {
		if *patch.Agency == "" {
			return Proposal{}, validationError("agency cannot be blank")
		}
		p.Agency = *patch.Agency
	}
	if patch.DueDate != nil {
		due, ok := parseInstant(*patch.DueDate)
		if !ok {
			return Proposal{}, validationError("dueDate %q is not a valid instant", *patch.DueDate)
		}
		p.DueDate = due
	}
	if patch.Type != nil {
		proposalType := ProposalType(*patch.Type)
		if !ValidProposalType(proposalType) {
			return Proposal{}, validationError("type %q is not a valid proposal category", *patch.Type)
		}
		p.Type = proposalType
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	p.UpdatedAt = s.now()

	if err := s.persister.SaveProposals(ctx, next); err != nil {
		return Proposal{}, persistenceError("save proposals", err)
	}
	s.proposals = next
	return cloneProposal(next[i]), nil
}

// DeleteProposal removes the proposal along with its tasks and files.
// Deletes are strict across the store: an absent id is NotFound.
func (s *Store) DeleteProposal(ctx context.Context, id string) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfProposal(s.proposals, id)
	if i < 0 {
		return Proposal{}, notFoundError("proposal %s not found", id)
	}
	removed := cloneProposal(s.proposals[i])

	next := cloneProposals(s.proposals)
	next = append(next[:i], next[i+1:]...)
	if err := s.persister.SaveProposals(ctx, next); err != nil {
		return Proposal{}, persistenceError("save proposals", err)
	}
	s.proposals = next
	return removed, nil
}

// UpdateProposalStatus moves the proposal along the workflow pipeline.
// Only a single step forward or back is legal.
func (s *Store) UpdateProposalStatus(ctx context.Context, id string, raw string) (Proposal, error) {
	newStatus, err := workflow.Parse(raw)
	if err != nil {
		return Proposal{}, validationError("status %q is not a workflow stage", raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneProposals(s.proposals)
	i := indexOfProposal(next, id)
	if i < 0 {
		return Proposal{}, notFoundError("proposal %s not found", id)
	}
	p := &next[i]
	if !workflow.CanTransition(p.Status, newStatus) {
		return Proposal{}, invalidTransitionError("cannot move proposal %s from %s to %s", id, p.Status, newStatus)
	}
	p.Status = newStatus
	p.UpdatedAt = s.now()

	if err := s.persister.SaveProposals(ctx, next); err != nil {
		return Proposal{}, persistenceError("save proposals", err)
	}
	s.proposals = next
	return cloneProposal(next[i]), nil
}

func (s *Store) AddTask(ctx context.Context, proposalID string, draft TaskDraft) (Task, error) {
	if draft.Title == "" {
		return Task{}, validationError("title is required")
	}
	if draft.DueDate == "" {
		return Task{}, validationError("dueDate is required")
	}
	due, ok := parseInstant(draft.DueDate)
	if !ok {
		return Task{}, validationError("dueDate %q is not a valid instant", draft.DueDate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneProposals(s.proposals)
	i := indexOfProposal(next, proposalID)
	if i < 0 {
		return Task{}, notFoundError("proposal %s not found", proposalID)
	}

	task := Task{
		ID:         util.NewID("task"),
		ProposalID: proposalID,
		Title:      draft.Title,
		Owner:      draft.Owner,
		DueDate:    due,
		Status:     TaskPending,
		CreatedAt:  s.now(),
	}
	next[i].Tasks = append(next[i].Tasks, task)
	next[i].UpdatedAt = s.now()

	if err := s.persister.SaveProposals(ctx, next); err != nil {
		return Task{}, persistenceError("save proposals", err)
	}
	s.proposals = next
	return task, nil
}

func (s *Store) UpdateTask(ctx context.Context, proposalID, taskID string, patch TaskPatch) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneProposals(s.proposals)
	i := indexOfProposal(next, proposalID)
	if i < 0 {
		return Task{}, notFoundError("proposal %s not found", proposalID)
	}
	j := indexOfTask(next[i].Tasks, taskID)
	if j < 0 {
		return Task{}, notFoundError("task %s not found in proposal %s", taskID, proposalID)
	}
	task := &next[i].Tasks[j]

	if patch.Title != nil {
		if *patch.Title == "" {
			return Task{}, validationError("title cannot be blank")
		}
		task.Title = *patch.Title
	}
	if patch.Owner != nil {
		task.Owner = *patch.Owner
	}
	if patch.DueDate != nil {
		due, ok := parseInstant(*patch.DueDate)
		if !ok {
			return Task{}, validationError("dueDate %q is not a valid instant", *patch.DueDate)
		}
		task.DueDate = due
	}
	if patch.Status != nil {
		status := TaskStatus(*patch.Status)
		if !ValidTaskStatus(status) {
			return Task{}, validationError("status %q is not a task status", *patch.Status)
		}
		task.Status = status
	}
	next[i].UpdatedAt = s.now()

	if err := s.persister.SaveProposals(ctx, next); err != nil {
		return Task{}, persistenceError("save proposals", err)
	}
	s.proposals = next
	return *task, nil
}

func (s *Store) DeleteTask(ctx context.Context, proposalID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneProposals(s.proposals)
	i := indexOfProposal(next, proposalID)
	if i < 0 {
		return notFoundError("proposal %s not found", proposalID)
	}
	j := indexOfTask(next[i].Tasks, taskID)
	if j < 0 {
		return notFoundError("task %s not found in proposal %s", taskID, proposalID)
	}
	next[i].Tasks = append(next[i].Tasks[:j], next[i].Tasks[j+1:]...)
	next[i].UpdatedAt = s.now()

	if err := s.persister.SaveProposals(ctx, next); err != nil {
		return persistenceError("save proposals", err)
	}
	s.proposals = next
	return nil
}

func (s *Store) AddFile(ctx context.Context, proposalID string, draft FileDraft) (FileMeta, error) {
	if draft.Filename == "" {
		return FileMeta{}, validationError("filename is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneProposals(s.proposals)
	i := indexOfProposal(next, proposalID)
	if i < 0 {
		return FileMeta{}, notFoundError("proposal %s not found", proposalID)
	}

	meta := FileMeta{
		ID:        util.NewID("file"),
		Filename:  draft.Filename,
		Type:      draft.Type,
		Size:      draft.Size,
		Reference: draft.Reference,
		CreatedAt: s.now(),
	}
	next[i].Files = append(next[i].Files, meta)
	next[i].UpdatedAt = s.now()

	if err := s.persister.SaveProposals(ctx, next); err != nil {
		return FileMeta{}, persistenceError("save proposals", err)
	}
	s.proposals = next
	return meta, nil
}

func (s *Store) DeleteFile(ctx context.Context, proposalID, fileID string) (FileMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneProposals(s.proposals)
	i := indexOfProposal(next, proposalID)
	if i < 0 {
		return FileMeta{}, notFoundError("proposal %s not found", proposalID)
	}
	j := -1
	for k, f := range next[i].Files {
		if f.ID == fileID {
			j = k
			break
		}
	}
	if j < 0 {
		return FileMeta{}, notFoundError("file %s not found in proposal %s", fileID, proposalID)
	}
	removed := next[i].Files[j]
	next[i].Files = append(next[i].Files[:j], next[i].Files[j+1:]...)
	next[i].UpdatedAt = s.now()

	if err := s.persister.SaveProposals(ctx, next); err != nil {
		return FileMeta{}, persistenceError("save proposals", err)
	}
	s.proposals = next
	return removed, nil
}

func (s *Store) GetProposal(id string) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOfProposal(s.proposals, id)
	if i < 0 {
		return Proposal{}, notFoundError("proposal %s not found", id)
	}
	return cloneProposal(s.proposals[i]), nil
}

func (s *Store) ListProposals() []Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProposals(s.proposals)
}

func (s *Store) AddEvent(ctx context.Context, draft EventDraft) (CalendarEvent, error) {
	if draft.Title == "" {
		return CalendarEvent{}, validationError("title is required")
	}
	if draft.Date == "" {
		return CalendarEvent{}, validationError("date is required")
	}
	date, ok := parseInstant(draft.Date)
	if !ok {
		return CalendarEvent{}, validationError("date %q is not a valid instant", draft.Date)
	}
	var notifyAt *time.Time
	if draft.PushNotification {
		if draft.NotificationTime == "" {
			return CalendarEvent{}, validationError("notificationTime is required when pushNotification is set")
		}
		t, ok := parseInstant(draft.NotificationTime)
		if !ok {
			return CalendarEvent{}, validationError("notificationTime %q is not a valid instant", draft.NotificationTime)
		}
		notifyAt = &t
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event := CalendarEvent{
		ID:               util.NewID("evt"),
		Title:            draft.Title,
		Date:             date,
		Type:             EventCustom,
		ProposalID:       draft.ProposalID,
		PushNotification: draft.PushNotification,
		NotificationTime: notifyAt,
	}
	next := append(cloneEvents(s.events), event)
	if err := s.persister.SaveEvents(ctx, next); err != nil {
		return CalendarEvent{}, persistenceError("save events", err)
	}
	s.events = next
	return event, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, patch EventPatch) (CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneEvents(s.events)
	i := indexOfEvent(next, id)
	if i < 0 {
		return CalendarEvent{}, notFoundError("event %s not found", id)
	}
	e := &next[i]

	if patch.Title != nil {
		if *patch.Title == "" {
			return CalendarEvent{}, validationError("title cannot be blank")
		}
		e.Title = *patch.Title
	}
	if patch.Date != nil {
		date, ok := parseInstant(*patch.Date)
		if !ok {
			return CalendarEvent{}, validationError("date %q is not a valid instant", *patch.Date)
		}
		e.Date = date
	}
	if patch.ProposalID != nil {
		e.ProposalID = *patch.ProposalID
	}
	if patch.PushNotification != nil {
		e.PushNotification = *patch.PushNotification
	}
	if patch.NotificationTime != nil {
		if *patch.NotificationTime == "" {
			e.NotificationTime = nil
		} else {
			t, ok := parseInstant(*patch.NotificationTime)
			if !ok {
				return CalendarEvent{}, validationError("notificationTime %q is not a valid instant", *patch.NotificationTime)
			}
			e.NotificationTime = &t
			// Rescheduling re-arms the reminder.
			e.Notified = false
		}
	}
	if e.PushNotification && e.NotificationTime == nil {
		return CalendarEvent{}, validationError("notificationTime is required when pushNotification is set")
	}

	if err := s.persister.SaveEvents(ctx, next); err != nil {
		return CalendarEvent{}, persistenceError("save events", err)
	}
	s.events = next
	return next[i], nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfEvent(s.events, id)
	if i < 0 {
		return notFoundError("event %s not found", id)
	}
	next := cloneEvents(s.events)
	next = append(next[:i], next[i+1:]...)
	if err := s.persister.SaveEvents(ctx, next); err != nil {
		return persistenceError("save events", err)
	}
	s.events = next
	return nil
}

func (s *Store) GetEvent(id string) (CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOfEvent(s.events, id)
	if i < 0 {
		return CalendarEvent{}, notFoundError("event %s not found", id)
	}
	return s.events[i], nil
}

func (s *Store) ListEvents() []CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEvents(s.events)
}

// MarkEventNotified durably flips the notified flag. It returns true only
// for the call that performed the flip, which is what makes reminder firing
// idempotent: whoever loses the claim must not fire.
func (s *Store) MarkEventNotified(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneEvents(s.events)
	i := indexOfEvent(next, id)
	if i < 0 {
		return false, notFoundError("event %s not found", id)
	}
	if next[i].Notified {
		return false, nil
	}
	next[i].Notified = true
	if err := s.persister.SaveEvents(ctx, next); err != nil {
		return false, persistenceError("save events", err)
	}
	s.events = next
	return true, nil
}

func indexOfProposal(proposals []Proposal, id string) int {
	for i, p := range proposals {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func indexOfTask(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func indexOfEvent(events []CalendarEvent, id string) int {
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func cloneProposal(p Proposal) Proposal {
	out := p
	out.Tasks = make([]Task, len(p.Tasks))
	copy(out.Tasks, p.Tasks)
	out.Files = make([]FileMeta, len(p.Files))
	copy(out.Files, p.Files)
	return out
}

func cloneProposals(proposals []Proposal) []Proposal {
	out := make([]Proposal, len(proposals))
	for i, p := range proposals {
		out[i] = cloneProposal(p)
	}
	return out
}

func cloneEvents(events []CalendarEvent) []CalendarEvent {
	out := make([]CalendarEvent, len(events))
	copy(out, events)
	return out
}
