package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"threadcurator/internal/domain"
)

func TestExtractHTMLStripsNoise(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><style>body{}</style></head><body>
		<nav>menu</nav>
		<script>alert(1)</script>
		<p>The actual article body.</p>
		<footer>footer junk</footer>
		</body></html>`))
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), "test-agent")
	text, err := e.Extract(context.Background(), domain.Candidate{ID: "a", Link: server.URL})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if !strings.Contains(text, "The actual article body.") {
		t.Fatalf("body text missing: %q", text)
	}
	for _, noise := range []string{"menu", "alert", "footer junk"} {
		if strings.Contains(text, noise) {
			t.Fatalf("noise %q not stripped: %q", noise, text)
		}
	}
}

func TestExtractSelftext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".json") {
			t.Errorf("expected .json suffix, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"data":{"children":[{"data":{"selftext":"the post body"}}]}}]`))
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), "test-agent")
	text, err := e.extractSelftext(context.Background(), server.URL+"/r/golang/comments/abc/post/")
	if err != nil {
		t.Fatalf("extract selftext: %v", err)
	}
	if text != "the post body" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractSelftextFailsWhenEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"data":{"children":[{"data":{"selftext":"  "}}]}}]`))
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), "test-agent")
	if _, err := e.extractSelftext(context.Background(), server.URL+"/post"); err == nil {
		t.Fatal("expected empty selftext to fail")
	}
}

func TestExtractCapsLongBodies(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 3000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + long + "</p></body></html>"))
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), "test-agent")
	text, err := e.Extract(context.Background(), domain.Candidate{ID: "a", Link: server.URL})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(text) > maxBodyChars+3 {
		t.Fatalf("body not capped: %d chars", len(text))
	}
	if !strings.HasSuffix(text, "...") {
		t.Fatalf("capped body missing ellipsis: %q", text[len(text)-10:])
	}
}

func TestExtractFailsOnErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), "test-agent")
	if _, err := e.Extract(context.Background(), domain.Candidate{ID: "a", Link: server.URL}); err == nil {
		t.Fatal("expected 404 to fail extraction")
	}
}

func TestExtractFailsWithoutLink(t *testing.T) {
	t.Parallel()

	e := NewExtractor(nil, "test-agent")
	if _, err := e.Extract(context.Background(), domain.Candidate{ID: "a"}); err == nil {
		t.Fatal("expected missing link to fail")
	}
}
