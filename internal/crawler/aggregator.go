package crawler

import (
	"sync"

	"github.com/nao1215/sitehealth/internal/model"
)

// Aggregator collects the issues of one scan.
// The same (resource URL, referring page) pair is kept once, first seen
// wins, and discovery order is preserved.
type Aggregator struct {
	mu     sync.Mutex
	seen   map[model.IssueKey]bool
	issues []model.Issue
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[model.IssueKey]bool)}
}

// Add records an issue. It returns false if an issue with the same key was already recorded.
func (a *Aggregator) Add(issue model.Issue) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := issue.Key()
	if a.seen[key] {
		return false
	}
	a.seen[key] = true
	a.issues = append(a.issues, issue)
	return true
}

// Issues returns a copy of the recorded issues in discovery order.
func (a *Aggregator) Issues() []model.Issue {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.Issue, len(a.issues))
	copy(out, a.issues)
	return out
}

// Len returns the number of recorded issues.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.issues)
}
