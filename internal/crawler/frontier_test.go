package crawler

import (
	"errors"
	"fmt"
	"testing"
)

func TestFrontierSeed(t *testing.T) {
	t.Parallel()

	t.Run("seed is handed out first at depth 0", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if err := f.Seed("https://example.com/"); err != nil {
			t.Fatalf("Seed() error = %v", err)
		}

		entry, ok := f.Next()
		if !ok {
			t.Fatal("expected seed entry")
		}
		if entry.URL != "https://example.com/" || entry.Depth != 0 {
			t.Errorf("unexpected entry %+v", entry)
		}
		if _, ok := f.Next(); ok {
			t.Error("expected empty frontier after seed")
		}
	})

	t.Run("rejects non-http seeds", func(t *testing.T) {
		t.Parallel()

		for _, seed := range []string{"", "example.com", "ftp://example.com/", "mailto:a@example.com", "://bad"} {
			f := NewFrontier()
			if err := f.Seed(seed); !errors.Is(err, ErrInvalidSeed) {
				t.Errorf("Seed(%q) error = %v, want ErrInvalidSeed", seed, err)
			}
		}
	})

	t.Run("offer before seed is ignored", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if f.Offer("https://example.com/a", 1) {
			t.Error("expected Offer to fail without a seed")
		}
	})
}

func TestFrontierOffer(t *testing.T) {
	t.Parallel()

	newSeeded := func(t *testing.T, opts ...FrontierOption) *Frontier {
		t.Helper()
		f := NewFrontier(opts...)
		if err := f.Seed("https://example.com/"); err != nil {
			t.Fatalf("Seed() error = %v", err)
		}
		return f
	}

	t.Run("accepts same host links within depth", func(t *testing.T) {
		t.Parallel()
		f := newSeeded(t)
		if !f.Offer("https://example.com/about", 1) {
			t.Error("expected offer to be accepted")
		}
	})

	t.Run("host comparison ignores case", func(t *testing.T) {
		t.Parallel()
		f := newSeeded(t)
		if !f.Offer("https://EXAMPLE.com/about", 1) {
			t.Error("expected offer to be accepted")
		}
	})

	t.Run("rejects other hosts", func(t *testing.T) {
		t.Parallel()
		f := newSeeded(t)
		if f.Offer("https://other.example/", 1) {
			t.Error("expected off-site page to be rejected")
		}
		if f.Offer("https://sub.example.com/", 1) {
			t.Error("expected subdomain to be rejected")
		}
	})

	t.Run("rejects depth beyond limit", func(t *testing.T) {
		t.Parallel()
		f := newSeeded(t, WithMaxDepth(2))
		if !f.Offer("https://example.com/d2", 2) {
			t.Error("expected depth 2 to be accepted")
		}
		if f.Offer("https://example.com/d3", 3) {
			t.Error("expected depth 3 to be rejected")
		}
	})

	t.Run("rejects already queued url after normalization", func(t *testing.T) {
		t.Parallel()
		f := newSeeded(t)
		if !f.Offer("https://example.com/docs", 1) {
			t.Fatal("expected first offer to be accepted")
		}
		for _, dup := range []string{"https://example.com/docs/", "https://example.com/docs#intro", "HTTPS://Example.com/docs"} {
			if f.Offer(dup, 1) {
				t.Errorf("expected duplicate %q to be rejected", dup)
			}
		}
	})

	t.Run("rejects visited url", func(t *testing.T) {
		t.Parallel()
		f := newSeeded(t)
		f.Next()
		if f.Offer("https://example.com", 1) {
			t.Error("expected visited seed to be rejected")
		}
		if !f.Visited("https://example.com/") {
			t.Error("expected seed to be marked visited")
		}
	})

	t.Run("rejects non-http targets", func(t *testing.T) {
		t.Parallel()
		f := newSeeded(t)
		for _, target := range []string{"mailto:team@example.com", "javascript:void(0)", "tel:+123", "data:text/plain,hi"} {
			if f.Offer(target, 1) {
				t.Errorf("expected %q to be rejected", target)
			}
		}
	})

	t.Run("applies ignore and follow patterns", func(t *testing.T) {
		t.Parallel()
		f := newSeeded(t,
			WithIgnorePatterns([]string{"/docs/private/*"}),
			WithFollowPatterns([]string{"/docs/*"}),
		)
		if !f.Offer("https://example.com/docs/intro", 1) {
			t.Error("expected followed path to be accepted")
		}
		if f.Offer("https://example.com/docs/private/keys", 1) {
			t.Error("expected ignored path to be rejected")
		}
		if f.Offer("https://example.com/blog", 1) {
			t.Error("expected path outside follow patterns to be rejected")
		}
	})
}

func TestFrontierNext(t *testing.T) {
	t.Parallel()

	t.Run("breadth-first order", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if err := f.Seed("https://example.com/"); err != nil {
			t.Fatal(err)
		}
		f.Next()
		f.Offer("https://example.com/a", 1)
		f.Offer("https://example.com/b", 1)

		a, _ := f.Next()
		f.Offer("https://example.com/a/deep", 2)
		b, _ := f.Next()
		deep, _ := f.Next()

		got := []string{a.URL, b.URL, deep.URL}
		want := []string{"https://example.com/a", "https://example.com/b", "https://example.com/a/deep"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order = %v, want %v", got, want)
			}
		}
	})

	t.Run("stops at page budget", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(WithMaxPages(3))
		if err := f.Seed("https://example.com/"); err != nil {
			t.Fatal(err)
		}
		for i := range 10 {
			f.Offer(fmt.Sprintf("https://example.com/p%d", i), 1)
		}

		count := 0
		for {
			if _, ok := f.Next(); !ok {
				break
			}
			count++
		}
		if count != 3 {
			t.Errorf("expected 3 pages, got %d", count)
		}
		if f.Rendered() != 3 {
			t.Errorf("Rendered() = %d, want 3", f.Rendered())
		}
		if f.Pending() != 8 {
			t.Errorf("Pending() = %d, want 8 pages left over", f.Pending())
		}
	})
}

// TestFrontierInvariants drives a frontier over a synthetic site where every
// page links to its children, its parent and the root, and checks depth,
// budget and uniqueness bounds.
func TestFrontierInvariants(t *testing.T) {
	t.Parallel()

	const maxDepth, maxPages = 3, 20
	f := NewFrontier(WithMaxDepth(maxDepth), WithMaxPages(maxPages))
	if err := f.Seed("https://example.com/"); err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for {
		entry, ok := f.Next()
		if !ok {
			break
		}
		if entry.Depth > maxDepth {
			t.Errorf("entry %s has depth %d > %d", entry.URL, entry.Depth, maxDepth)
		}
		key := NormalizeURL(entry.URL)
		if seen[key] {
			t.Errorf("entry %s handed out twice", entry.URL)
		}
		seen[key] = true

		base := key
		for i := range 3 {
			f.Offer(fmt.Sprintf("%s/c%d/", base, i), entry.Depth+1)
		}
		f.Offer("https://example.com", entry.Depth+1)
		f.Offer(entry.URL+"#top", entry.Depth+1)
	}

	if len(seen) > maxPages {
		t.Errorf("handed out %d pages, budget is %d", len(seen), maxPages)
	}
	if len(seen) != maxPages {
		t.Errorf("expected the budget to be exhausted, got %d pages", len(seen))
	}
}
