package store

import (
	"time"

	"bidtrack/api/internal/workflow"
)

// ProposalType is the category tag of a tracked opportunity.
type ProposalType string

const (
	TypeRFP   ProposalType = "rfp"
	TypeRFQ   ProposalType = "rfq"
	TypeSBIR  ProposalType = "sbir"
	TypeIDIQ  ProposalType = "idiq"
	TypeGSA   ProposalType = "gsa"
	TypeOther ProposalType = "other"
)

var proposalTypes = map[ProposalType]struct{}{
	TypeRFP:   {},
	TypeRFQ:   {},
	TypeSBIR:  {},
	TypeIDIQ:  {},
	TypeGSA:   {},
	TypeOther: {},
}

func ValidProposalType(t ProposalType) bool {
	_, ok := proposalTypes[t]
	return ok
}

type Proposal struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Agency    string          `json:"agency"`
	DueDate   time.Time       `json:"dueDate"`
	Status    workflow.Status `json:"status"`
	Type      ProposalType    `json:"type"`
	Notes     string          `json:"notes"`
	Tasks     []Task          `json:"tasks"`
	Files     []FileMeta      `json:"files"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

func ValidTaskStatus(s TaskStatus) bool {
	return s == TaskPending || s == TaskInProgress || s == TaskCompleted
}

// Task is a unit of work owned by exactly one proposal. ProposalID is a
// back-reference for lookups; the proposal's Tasks slice is the owner.
type Task struct {
	ID         string     `json:"id"`
	ProposalID string     `json:"proposalId"`
	Title      string     `json:"title"`
	Owner      string     `json:"owner"`
	DueDate    time.Time  `json:"dueDate"`
	Status     TaskStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Completed is the boolean view over the tri-state status.
func (t Task) Completed() bool {
	return t.Status == TaskCompleted
}

type EventType string

const (
	EventProposal EventType = "proposal"
	EventTask     EventType = "task"
	EventCustom   EventType = "custom"
)

// CalendarEvent is either a user-owned "custom" deadline, or (in calendar
// projections only) a read-time derivation of a proposal or task due date.
// Only custom events are ever stored.
type CalendarEvent struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Date             time.Time  `json:"date"`
	Type             EventType  `json:"type"`
	ProposalID       string     `json:"proposalId,omitempty"`
	PushNotification bool       `json:"pushNotification"`
	NotificationTime *time.Time `json:"notificationTime,omitempty"`
	Notified         bool       `json:"notified"`
}

// FileMeta describes an uploaded attachment. Content lives behind Reference
// (object-store key or inline data URI); the record itself is immutable
// between upload and delete.
type FileMeta struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"createdAt"`
}
