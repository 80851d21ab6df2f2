package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultProposal ResultType = "proposal"
	ResultTask     ResultType = "task"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type       ResultType `json:"type"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	ProposalID string     `json:"proposalId"`
	Agency     string     `json:"agency,omitempty"`
	Status     string     `json:"status,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text         string
	FilterType   ResultType // empty = all types
	FilterStatus string
	FilterAgency string
	Limit        int
	Offset       int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexProposal(p ProposalRecord) error
	IndexTask(t TaskRecord) error
	DeleteProposal(id string) error
	DeleteTask(id string) error
}

// ProposalRecord is the data we index for a proposal.
type ProposalRecord struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Agency string `json:"agency"`
	Notes  string `json:"notes"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

// TaskRecord is the data we index for a task.
type TaskRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ProposalID string `json:"proposalId"`
	Status     string `json:"status"`
}
