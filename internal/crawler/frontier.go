package crawler

import (
	"net/url"
	"strings"
)

// Default crawl bounds.
const (
	// DefaultMaxDepth is the deepest link distance from the seed that is visited.
	DefaultMaxDepth = 3

	// DefaultMaxPages caps the number of pages handed out by one Frontier.
	DefaultMaxPages = 50
)

// Entry is one page waiting to be visited.
type Entry struct {
	// URL is the page address as discovered.
	URL string

	// Depth is the link distance from the seed page, which has depth 0.
	Depth int
}

// Frontier owns the visit queue of one scan.
//
// Pages are handed out breadth-first. A page is handed out at most once
// (after normalization), never deeper than MaxDepth, and never more than
// MaxPages pages in total. Only pages on the seed's host are accepted.
//
// Design decision: A Frontier is not safe for concurrent use. Each scan
// processes pages sequentially and owns its Frontier exclusively.
type Frontier struct {
	maxDepth       int
	maxPages       int
	ignorePatterns []string
	followPatterns []string

	seedHost string
	queue    []Entry
	queued   map[string]bool
	visited  map[string]bool
	handed   int
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithMaxDepth sets the maximum link depth.
// 0 = only the seed page, 1 = the seed page plus pages it links to, etc.
func WithMaxDepth(depth int) FrontierOption {
	return func(f *Frontier) {
		f.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages handed out by Next.
func WithMaxPages(maxPages int) FrontierOption {
	return func(f *Frontier) {
		f.maxPages = maxPages
	}
}

// WithIgnorePatterns sets URL path patterns that are never visited.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) FrontierOption {
	return func(f *Frontier) {
		f.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts visits to URL paths matching at least one pattern.
// An empty slice allows every path not ignored.
func WithFollowPatterns(patterns []string) FrontierOption {
	return func(f *Frontier) {
		f.followPatterns = patterns
	}
}

// NewFrontier creates an empty Frontier. Call Seed before Next.
func NewFrontier(opts ...FrontierOption) *Frontier {
	f := &Frontier{
		maxDepth: DefaultMaxDepth,
		maxPages: DefaultMaxPages,
		queued:   make(map[string]bool),
		visited:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Seed enqueues the root page at depth 0 and fixes the host that later
// offers must match. The seed is never filtered by ignore or follow patterns.
func (f *Frontier) Seed(seedURL string) error {
	u, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil || !IsCheckable(seedURL) {
		return ErrInvalidSeed
	}

	f.seedHost = u.Host
	f.enqueue(Entry{URL: u.String(), Depth: 0})
	return nil
}

// Offer enqueues a discovered page. It returns false and does nothing when
// the page was already visited or queued, when depth exceeds MaxDepth, when
// the host differs from the seed host, or when patterns exclude the path.
func (f *Frontier) Offer(pageURL string, depth int) bool {
	if f.seedHost == "" || depth > f.maxDepth || depth < 0 {
		return false
	}
	if !IsCheckable(pageURL) || !sameHost(f.seedHost, pageURL) {
		return false
	}

	key := NormalizeURL(pageURL)
	if f.visited[key] || f.queued[key] {
		return false
	}
	if !f.shouldVisit(pageURL) {
		return false
	}

	f.enqueue(Entry{URL: pageURL, Depth: depth})
	return true
}

// Next dequeues the next page in breadth-first order and marks it visited.
// It returns false once the queue is drained or MaxPages pages were handed out.
func (f *Frontier) Next() (Entry, bool) {
	for len(f.queue) > 0 && f.handed < f.maxPages {
		entry := f.queue[0]
		f.queue = f.queue[1:]

		key := NormalizeURL(entry.URL)
		delete(f.queued, key)
		if f.visited[key] {
			continue
		}

		f.visited[key] = true
		f.handed++
		return entry, true
	}
	return Entry{}, false
}

// Visited reports whether the page was already handed out by Next.
func (f *Frontier) Visited(pageURL string) bool {
	return f.visited[NormalizeURL(pageURL)]
}

// Rendered returns the number of pages handed out so far.
func (f *Frontier) Rendered() int {
	return f.handed
}

// Pending returns the number of queued pages not handed out yet. After Next
// reports false it is the number of pages the budget cut off.
func (f *Frontier) Pending() int {
	return len(f.queue)
}

func (f *Frontier) enqueue(e Entry) {
	f.queued[NormalizeURL(e.URL)] = true
	f.queue = append(f.queue, e)
}

// shouldVisit applies ignore and follow patterns to the URL path.
//
// Logic:
//  1. If the path matches any ignore pattern, skip it
//  2. If follow patterns are set and the path matches none, skip it
//  3. Otherwise, visit it
func (f *Frontier) shouldVisit(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range f.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(f.followPatterns) == 0 {
		return true
	}
	for _, pattern := range f.followPatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}
