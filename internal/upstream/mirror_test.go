package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestPullCachesWithETag(t *testing.T) {
	const doc = `{"2021-07-15": {"name": "Summer Social"}}`
	var hits, conditional atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(doc))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "ps_data.json")
	m, err := NewMirror(srv.URL+"/ps_data.json?token=secret", path)
	if err != nil {
		t.Fatal(err)
	}

	res, err := m.Pull(context.Background())
	if err != nil || res != Updated {
		t.Fatalf("first pull = %v, %v", res, err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != doc {
		t.Fatalf("local file = %q, %v", got, err)
	}

	res, err = m.Pull(context.Background())
	if err != nil || res != Unchanged {
		t.Fatalf("second pull = %v, %v", res, err)
	}
	if hits.Load() != 2 || conditional.Load() != 1 {
		t.Fatalf("hits = %d, conditional = %d", hits.Load(), conditional.Load())
	}
}

func TestPullRejectsInvalidDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"2021-07-15": [1, 2]}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "ps_data.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := NewMirror(srv.URL, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Pull(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if got, _ := os.ReadFile(path); string(got) != `{}` {
		t.Fatalf("local file replaced: %q", got)
	}
}

func TestPullKeepsLocalFileOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "ps_data.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := NewMirror(srv.URL, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Pull(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got, _ := os.ReadFile(path); string(got) != `{}` {
		t.Fatalf("local file replaced: %q", got)
	}
}

func TestNewMirrorValidates(t *testing.T) {
	if _, err := NewMirror("file:///etc/passwd", "x.json"); err == nil {
		t.Fatal("file scheme accepted")
	}
	if _, err := NewMirror("https://example.org/doc.json", ""); err == nil {
		t.Fatal("empty path accepted")
	}
}

func TestRedactURL(t *testing.T) {
	if got := redactURL("https://example.org/private/doc.json?token=abc"); got != "https://example.org/...(redacted)" {
		t.Fatalf("redactURL = %q", got)
	}
	if got := redactURL("::"); got != "upstream://...(redacted)" {
		t.Fatalf("redactURL = %q", got)
	}
}
