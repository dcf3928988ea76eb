package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "time/tzdata"

	ical "github.com/arran4/golang-ical"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"pubstandards/internal/config"
	"pubstandards/internal/events"
	"pubstandards/internal/feed"
)

const overrides = `{
  "2021-07-15": {"name": "Summer Social", "location": "The Perseverance"}
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Hiatuses = nil

	fs := memfs.New()
	if err := util.WriteFile(fs, "ps_data.json", []byte(overrides), 0o644); err != nil {
		t.Fatal(err)
	}
	series, err := events.NewSeries(cfg)
	if err != nil {
		t.Fatal(err)
	}
	cal := events.NewCalendar(series, events.NewStore(fs, "ps_data.json"))

	now := time.Date(2021, 6, 1, 12, 0, 0, 0, series.Location())
	return NewServer(cfg, cal, func() time.Time { return now })
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v\n%s", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestEventsWindow(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/events?from=2021-06-01&to=2021-08-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[eventsResponse](t, rec)

	var dates []string
	for _, ev := range resp.Events {
		dates = append(dates, ev.Date)
	}
	want := []string{"2021-06-10", "2021-07-15", "2021-08-12"}
	if strings.Join(dates, ",") != strings.Join(want, ",") {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	if resp.Events[1].Title != "Summer Social" || resp.Events[1].Location != "The Perseverance" {
		t.Fatalf("override not applied: %+v", resp.Events[1])
	}
	if resp.DisplayTimeZone != "Europe/London" {
		t.Fatalf("timezone = %q", resp.DisplayTimeZone)
	}
}

func TestEventsBadQuery(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/api/events?from=June",
		"/api/events?to=2021-13-01",
		"/api/events?from=2021-08-01&to=2021-07-01",
	} {
		if rec := get(t, s, path); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestEventByNumber(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/events/189", "/api/events/CLXXXIX", "/api/events/clxxxix"} {
		rec := get(t, s, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
		ev := decode[feed.EventJSON](t, rec)
		if ev.Date != "2021-06-10" || ev.Number != 189 || ev.Title != "Pub Standards CLXXXIX" {
			t.Fatalf("%s: %+v", path, ev)
		}
	}

	if rec := get(t, s, "/api/events/0"); rec.Code != http.StatusNotFound {
		t.Fatalf("0: status = %d", rec.Code)
	}
	if rec := get(t, s, "/api/events/IIII"); rec.Code != http.StatusBadRequest {
		t.Fatalf("IIII: status = %d", rec.Code)
	}
}

func TestNext(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/events/next")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	ev := decode[feed.EventJSON](t, rec)
	if ev.Date != "2021-06-10" || ev.InThePast {
		t.Fatalf("next = %+v", ev)
	}
	if ev.TimeUntil == "" {
		t.Fatal("time_until missing")
	}
}

func TestSlug(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/slug/summer-social")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ev := decode[feed.EventJSON](t, rec); ev.Date != "2021-07-15" {
		t.Fatalf("slug event = %+v", ev)
	}

	// Generated events are not searched by slug.
	if rec := get(t, s, "/api/slug/pub-standards-clxxxix"); rec.Code != http.StatusNotFound {
		t.Fatalf("generated slug: status = %d", rec.Code)
	}
}

func TestCalendarICS(t *testing.T) {
	rec := get(t, newTestServer(t), "/calendar.ics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("content type = %q", ct)
	}
	cal, err := ical.ParseCalendar(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cal.Events()) == 0 {
		t.Fatal("no events in feed")
	}
}

func TestCard(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/card/189")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`data-ready="true"`, "CLXXXIX", "Thursday June 10, 2021", "&ndash;"} {
		if !strings.Contains(body, want) {
			t.Fatalf("card missing %q:\n%s", want, body)
		}
	}

	if rec := get(t, s, "/card/nope"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad card: status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	get(t, s, "/health")
	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pubstandards_http_requests_total") {
		t.Fatal("request counter not exported")
	}
}

func TestWindowIncludesLastHorizonDay(t *testing.T) {
	s := newTestServer(t)
	// Today is June 1, so the horizon ends on June 10, an event day whose
	// evening runs past the noon "now".
	s.cfg.Export.HorizonDays = 9

	resp := decode[eventsResponse](t, get(t, s, "/api/events"))
	if len(resp.Events) != 1 || resp.Events[0].Date != "2021-06-10" {
		t.Fatalf("api events = %+v", resp.Events)
	}

	rec := get(t, s, "/calendar.ics")
	cal, err := ical.ParseCalendar(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n := len(cal.Events()); n != 1 {
		t.Fatalf("ics events = %d, want 1", n)
	}
}
