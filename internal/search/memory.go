package search

import (
	"sort"
	"strings"

	"bidtrack/api/internal/store"
)

// ProposalSource yields the live proposal collection to scan.
type ProposalSource interface {
	ListProposals() []store.Proposal
}

// Memory is the fallback backend: a case-insensitive substring scan
// over the live collection. It holds no index of its own, so it is
// always consistent with the store and always available.
type Memory struct {
	source ProposalSource
}

func NewMemory(source ProposalSource) *Memory {
	return &Memory{source: source}
}

// Healthy always reports true; the scan has no external dependency.
func (m *Memory) Healthy() bool { return true }

// Search scans titles, agencies and notes for the query text.
func (m *Memory) Search(q Query) ([]Result, int, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	var results []Result
	for _, p := range m.source.ListProposals() {
		if q.FilterType == "" || q.FilterType == ResultProposal {
			if matchesProposal(p, needle, q) {
				results = append(results, Result{
					Type:       ResultProposal,
					ID:         p.ID,
					Title:      p.Title,
					Snippet:    snippet(p.Notes),
					ProposalID: p.ID,
					Agency:     p.Agency,
					Status:     string(p.Status),
				})
			}
		}
		if q.FilterType != "" && q.FilterType != ResultTask {
			continue
		}
		for _, t := range p.Tasks {
			if !matchesTask(t, needle, q) {
				continue
			}
			results = append(results, Result{
				Type:       ResultTask,
				ID:         t.ID,
				Title:      t.Title,
				ProposalID: p.ID,
				Status:     string(t.Status),
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Type != results[j].Type {
			return results[i].Type == ResultProposal
		}
		return results[i].ID < results[j].ID
	})

	total := len(results)
	results = page(results, q.Offset, q.Limit)
	return results, total, nil
}

func matchesProposal(p store.Proposal, needle string, q Query) bool {
	if q.FilterStatus != "" && string(p.Status) != q.FilterStatus {
		return false
	}
	if q.FilterAgency != "" && !strings.EqualFold(p.Agency, q.FilterAgency) {
		return false
	}
	if needle == "" {
		return true
	}
	return containsFold(p.Title, needle) ||
		containsFold(p.Agency, needle) ||
		containsFold(p.Notes, needle)
}

func matchesTask(t store.Task, needle string, q Query) bool {
	if q.FilterStatus != "" && string(t.Status) != q.FilterStatus {
		return false
	}
	if needle == "" {
		return true
	}
	return containsFold(t.Title, needle)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func snippet(notes string) string {
	const max = 120
	notes = strings.TrimSpace(notes)
	runes := []rune(notes)
	if len(runes) <= max {
		return notes
	}
	return string(runes[:max]) + "…"
}

func page(results []Result, offset, limit int) []Result {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []Result{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
