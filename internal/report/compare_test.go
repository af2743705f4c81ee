package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nao1215/sitehealth/internal/model"
)

func TestCompare(t *testing.T) {
	t.Parallel()

	fixed := model.Issue{Kind: model.KindBrokenLink, URL: "https://a.example/old", PageURL: "https://a.example", StatusCode: 404}
	kept := model.Issue{Kind: model.KindBrokenImage, URL: "https://a.example/x.png", PageURL: "https://a.example", StatusCode: 404}
	keptNewStatus := kept
	keptNewStatus.StatusCode = 500
	added := model.Issue{Kind: model.KindBrokenLink, URL: "https://a.example/new", PageURL: "https://a.example", StatusCode: 0}

	c := Compare([]model.Issue{fixed, kept}, []model.Issue{keptNewStatus, added})

	if len(c.New) != 1 || c.New[0].URL != added.URL {
		t.Errorf("New = %+v", c.New)
	}
	if len(c.Resolved) != 1 || c.Resolved[0].URL != fixed.URL {
		t.Errorf("Resolved = %+v", c.Resolved)
	}
	if len(c.Persisting) != 1 || c.Persisting[0].StatusCode != 500 {
		t.Errorf("Persisting = %+v", c.Persisting)
	}
	if !c.HasChanges() || c.Direction() != "unchanged" {
		t.Errorf("HasChanges() = %v, Direction() = %q", c.HasChanges(), c.Direction())
	}

	t.Run("direction", func(t *testing.T) {
		t.Parallel()

		if got := Compare(nil, []model.Issue{added}).Direction(); got != "worsened" {
			t.Errorf("Direction() = %q, want worsened", got)
		}
		if got := Compare([]model.Issue{fixed}, nil).Direction(); got != "improved" {
			t.Errorf("Direction() = %q, want improved", got)
		}
	})

	t.Run("same kind and URL on another page is a different issue", func(t *testing.T) {
		t.Parallel()

		other := fixed
		other.PageURL = "https://a.example/blog"
		c := Compare([]model.Issue{fixed}, []model.Issue{other})
		if len(c.New) != 1 || len(c.Resolved) != 1 {
			t.Errorf("comparison = %+v", c)
		}
	})
}

func TestWriteComparison(t *testing.T) {
	t.Parallel()

	t.Run("no changes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := WriteComparison(&buf, Comparison{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No changes since the previous scan.") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("lists new and resolved issues", func(t *testing.T) {
		t.Parallel()

		c := Comparison{
			New:      []model.Issue{{Kind: model.KindBrokenLink, URL: "https://a.example/new", PageURL: "https://a.example", StatusCode: 404}},
			Resolved: []model.Issue{{Kind: model.KindBrokenImage, URL: "https://a.example/x.png", PageURL: "https://a.example", StatusCode: 0}},
		}
		var buf bytes.Buffer
		if err := WriteComparison(&buf, c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"+ new", "- resolved", "https://a.example/new", "BROKEN IMAGE"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})
}
