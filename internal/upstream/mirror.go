// Package upstream mirrors a remotely hosted override document into the
// local file the calendar reads, with HTTP caching (ETag / Last-Modified).
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"pubstandards/internal/config"
	"pubstandards/internal/events"
	appLog "pubstandards/internal/log"
	"pubstandards/internal/metrics"
)

// maxDocument bounds the size of an upstream document.
const maxDocument = 4 << 20

// Result reports what a pull did to the local file.
type Result int

const (
	Unchanged Result = iota // 304, or identical content
	Updated                 // local file replaced
)

func (r Result) String() string {
	if r == Updated {
		return "updated"
	}
	return "unchanged"
}

// cacheMeta holds HTTP validators for the last accepted body.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Mirror copies the document at URL into Path.
type Mirror struct {
	client *http.Client
	url    string
	path   string
}

// NewMirror mirrors rawURL into path. Cache metadata lives next to path.
func NewMirror(rawURL, path string) (*Mirror, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("upstream: bad url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream: unsupported scheme %q", u.Scheme)
	}
	if path == "" {
		return nil, errors.New("upstream: local path is empty")
	}
	return &Mirror{
		client: &http.Client{Timeout: 15 * time.Second},
		url:    rawURL,
		path:   path,
	}, nil
}

func (m *Mirror) metaPath() string {
	return m.path + ".meta.json"
}

// Pull fetches the upstream document. A new body is validated as an
// override document before it replaces the local file; on any failure the
// local file is left as it was.
func (m *Mirror) Pull(ctx context.Context) (Result, error) {
	res, err := m.pull(ctx)
	label := res.String()
	if err != nil {
		label = "error"
		appLog.Error("override pull failed", err, "url", redactURL(m.url))
	}
	metrics.OverridePulls.WithLabelValues(label).Inc()
	return res, err
}

func (m *Mirror) pull(ctx context.Context) (Result, error) {
	current, curErr := os.ReadFile(m.path)
	var meta cacheMeta
	if curErr == nil {
		// Validators only mean something while the body they describe exists.
		meta, _ = m.loadMeta()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return Unchanged, err
	}
	if meta.URL == m.url {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Debug("override pull start", "url", redactURL(m.url))

	resp, err := m.client.Do(req)
	if err != nil {
		return Unchanged, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		appLog.Debug("override pull not modified", "url", redactURL(m.url))
		return Unchanged, nil
	default:
		return Unchanged, fmt.Errorf("upstream: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocument+1))
	if err != nil {
		return Unchanged, err
	}
	if len(body) > maxDocument {
		return Unchanged, fmt.Errorf("upstream: document larger than %d bytes", maxDocument)
	}
	count, err := events.Validate(bytes.NewReader(body))
	if err != nil {
		return Unchanged, fmt.Errorf("upstream: rejected document: %w", err)
	}

	newMeta := cacheMeta{
		URL:          m.url,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		UpdatedAt:    time.Now().UTC(),
	}

	result := Unchanged
	if curErr != nil || !bytes.Equal(current, body) {
		// Write body first so meta never describes a body we do not hold.
		if err := config.WriteFileAtomic(m.path, body, 0o644); err != nil {
			return Unchanged, err
		}
		result = Updated
	}
	if err := m.saveMeta(newMeta); err != nil {
		appLog.Error("override cache meta save failed", err, "path", m.metaPath())
	}

	appLog.Info("override pull success", "url", redactURL(m.url), "result", result, "records", count)
	return result, nil
}

func (m *Mirror) loadMeta() (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(m.metaPath())
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func (m *Mirror) saveMeta(meta cacheMeta) error {
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return config.WriteFileAtomic(m.metaPath(), data, 0o600)
}

// redactURL keeps scheme and host only, since document URLs may carry
// access tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "upstream://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
