package render

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

const testPage = `<!DOCTYPE html>
<html><head><title>Home</title></head>
<body>
  <a href="/about">About</a>
  <a href="docs/intro">Intro</a>
  <a href="https://external.example/page">External</a>
  <a href="mailto:team@example.com">Mail</a>
  <a href="javascript:void(0)">Menu</a>
  <a>No href</a>
  <img src="/logo.png">
  <img src="data:image/gif;base64,R0lGODlhAQABAAAAACw=">
  <img alt="missing src">
</body></html>`

func newTestSession(t *testing.T, opts SessionOptions) Renderer {
	t.Helper()
	r, err := NewStatic().NewSession(t.Context(), opts)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestStaticRender(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	})
	mux.HandleFunc("/error", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<a href="/should-not-appear">x</a>`))
	})
	mux.HandleFunc("/file.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 <a href=\"/x\">"))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/based/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><base href="/assets/"></head><body><a href="guide">G</a><img src="pic.png"></body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r := newTestSession(t, SessionOptions{UserAgent: "TestBot/1.0"})

	t.Run("extracts links and images", func(t *testing.T) {
		t.Parallel()

		res, err := r.Render(t.Context(), srv.URL+"/")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if res.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want 200", res.StatusCode)
		}

		wantLinks := []string{
			srv.URL + "/about",
			srv.URL + "/docs/intro",
			"https://external.example/page",
			"mailto:team@example.com",
			"javascript:void(0)",
		}
		if strings.Join(res.Links, "\n") != strings.Join(wantLinks, "\n") {
			t.Errorf("Links = %v, want %v", res.Links, wantLinks)
		}

		if len(res.Images) != 3 {
			t.Fatalf("expected 3 images, got %d: %v", len(res.Images), res.Images)
		}
		if res.Images[0].Src != srv.URL+"/logo.png" || res.Images[0].Loaded {
			t.Errorf("unexpected first image %+v", res.Images[0])
		}
		if !strings.HasPrefix(res.Images[1].Src, "data:") {
			t.Errorf("expected data URI to be kept, got %q", res.Images[1].Src)
		}
		if res.Images[2].Src != "" {
			t.Errorf("expected empty src, got %q", res.Images[2].Src)
		}
	})

	t.Run("error status skips extraction", func(t *testing.T) {
		t.Parallel()

		res, err := r.Render(t.Context(), srv.URL+"/error")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if res.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d, want 500", res.StatusCode)
		}
		if len(res.Links) != 0 {
			t.Errorf("expected no links, got %v", res.Links)
		}
	})

	t.Run("non html content is not parsed", func(t *testing.T) {
		t.Parallel()

		res, err := r.Render(t.Context(), srv.URL+"/file.pdf")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if len(res.Links) != 0 {
			t.Errorf("expected no links, got %v", res.Links)
		}
	})

	t.Run("final url follows redirects", func(t *testing.T) {
		t.Parallel()

		res, err := r.Render(t.Context(), srv.URL+"/moved")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if res.FinalURL != srv.URL+"/" {
			t.Errorf("FinalURL = %q, want %q", res.FinalURL, srv.URL+"/")
		}
	})

	t.Run("base href changes resolution", func(t *testing.T) {
		t.Parallel()

		res, err := r.Render(t.Context(), srv.URL+"/based/page")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if len(res.Links) != 1 || res.Links[0] != srv.URL+"/assets/guide" {
			t.Errorf("Links = %v", res.Links)
		}
		if len(res.Images) != 1 || res.Images[0].Src != srv.URL+"/assets/pic.png" {
			t.Errorf("Images = %v", res.Images)
		}
	})
}

func TestStaticRenderNavigationFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	r := newTestSession(t, SessionOptions{})
	_, err := r.Render(t.Context(), addr+"/")
	if !errors.Is(err, ErrNavigation) {
		t.Errorf("expected ErrNavigation, got %v", err)
	}
}

func TestStaticRenderTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	r := newTestSession(t, SessionOptions{Timeout: 50 * time.Millisecond})
	_, err := r.Render(t.Context(), srv.URL)
	if !errors.Is(err, ErrNavigation) {
		t.Errorf("expected ErrNavigation, got %v", err)
	}
}

func TestStaticRenderSendsSiteCredentials(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	r := newTestSession(t, SessionOptions{
		Host:      u.Host,
		UserAgent: "TestBot/1.0",
		Cookie:    "session=abc",
		Headers:   map[string]string{"X-Preview": "1"},
	})
	if _, err := r.Render(t.Context(), srv.URL); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if got.Get("User-Agent") != "TestBot/1.0" {
		t.Errorf("User-Agent = %q", got.Get("User-Agent"))
	}
	if got.Get("Cookie") != "session=abc" {
		t.Errorf("Cookie = %q", got.Get("Cookie"))
	}
	if got.Get("X-Preview") != "1" {
		t.Errorf("X-Preview = %q", got.Get("X-Preview"))
	}
}

func TestStaticRendererClosed(t *testing.T) {
	t.Parallel()

	r, err := NewStatic().NewSession(t.Context(), SessionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, err := r.Render(t.Context(), "http://example.com/"); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("expected ErrRendererClosed, got %v", err)
	}
}

func TestStaticNewSessionInvalidProxy(t *testing.T) {
	t.Parallel()

	_, err := NewStatic(WithStaticProxy("not-a-proxy")).NewSession(t.Context(), SessionOptions{})
	if err == nil {
		t.Error("expected error for invalid proxy address")
	}
}

func TestIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"", true},
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/json", false},
		{"image/png", false},
	}
	for _, tt := range tests {
		if got := isHTML(tt.contentType); got != tt.want {
			t.Errorf("isHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
