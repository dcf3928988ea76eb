package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pubstandards/internal/config"
	"pubstandards/internal/events"
	"pubstandards/internal/feed"
	appLog "pubstandards/internal/log"
	"pubstandards/internal/metrics"
	"pubstandards/internal/numeral"
	"pubstandards/internal/schedule"
)

// Server exposes the calendar over HTTP: JSON lookups, the iCalendar
// feed and the event card used for poster capture.
type Server struct {
	cfg *config.Config
	cal *events.Calendar
	now func() time.Time
	mux *http.ServeMux
}

// NewServer constructs a new Server. A nil now uses time.Now.
func NewServer(cfg *config.Config, cal *events.Calendar, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	s := &Server{
		cfg: cfg,
		cal: cal,
		now: now,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, cal *events.Calendar) error {
	s := NewServer(cfg, cal, nil)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.handle("GET /health", "health", s.handleHealth)
	s.handle("GET /api/events", "events", s.handleEvents)
	s.handle("GET /api/events/next", "next", s.handleNext)
	s.handle("GET /api/events/{number}", "number", s.handleNumber)
	s.handle("GET /api/slug/{slug}", "slug", s.handleSlug)
	s.handle("GET /calendar.ics", "ics", s.handleICS)
	s.handle("GET /card/{number}", "card", s.handleCard)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// handle registers h and counts its responses by route and status code.
func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Events          []feed.EventJSON `json:"events"`
	RangeStart      time.Time        `json:"range_start"`
	RangeEnd        time.Time        `json:"range_end"`
	DisplayTimeZone string           `json:"display_timezone"`
}

// handleEvents returns the merged events within a window.
//
// GET /api/events?from=2021-06-01&to=2021-12-31
//   - from: first day (default today minus backfill_days)
//   - to:   last day, inclusive (default today plus horizon_days)
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	loc := s.cal.Series().Location()
	defStart, defEnd := schedule.Window(s.now(), loc, s.cfg.Export.BackfillDays, s.cfg.Export.HorizonDays)

	q := r.URL.Query()
	start, err := parseDateDefault(q.Get("from"), loc, defStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad from date")
		return
	}
	last, err := parseDateDefault(q.Get("to"), loc, defEnd.AddDate(0, 0, -1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad to date")
		return
	}
	end := last.AddDate(0, 0, 1)
	if !start.Before(end) {
		writeError(w, http.StatusBadRequest, "from is after to")
		return
	}

	appLog.Debug("api events request",
		"range_start", start.Format(time.RFC3339),
		"range_end", end.Format(time.RFC3339),
	)

	evs, err := s.cal.Between(start, end)
	if err != nil {
		appLog.Error("api events: load failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events:          feed.ListJSON(evs, s.cfg.BaseURL, s.now()),
		RangeStart:      start,
		RangeEnd:        end,
		DisplayTimeZone: loc.String(),
	})
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	ev, ok, err := s.cal.Next(now)
	if err != nil {
		appLog.Error("api next: load failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no upcoming event")
		return
	}
	writeJSON(w, http.StatusOK, feed.ToJSON(ev, s.cfg.BaseURL, now))
}

func (s *Server) handleNumber(w http.ResponseWriter, r *http.Request) {
	ev, status, msg := s.lookupNumber(r.PathValue("number"))
	if status != http.StatusOK {
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, feed.ToJSON(ev, s.cfg.BaseURL, s.now()))
}

// lookupNumber resolves a decimal or Roman ordinal to its event.
func (s *Server) lookupNumber(raw string) (events.Event, int, string) {
	n, err := parseNumber(raw)
	if err != nil {
		return events.Event{}, http.StatusBadRequest, "bad event number"
	}
	ev, err := s.cal.ByNumber(n)
	switch {
	case errors.Is(err, schedule.ErrBadOrdinal), errors.Is(err, schedule.ErrNotHeld):
		return events.Event{}, http.StatusNotFound, "no such event"
	case err != nil:
		appLog.Error("api number: lookup failed", err, "number", n)
		return events.Event{}, http.StatusInternalServerError, "failed to load event"
	}
	return ev, http.StatusOK, ""
}

func (s *Server) handleSlug(w http.ResponseWriter, r *http.Request) {
	ev, ok, err := s.cal.BySlug(r.PathValue("slug"))
	if err != nil {
		appLog.Error("api slug: lookup failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no such event")
		return
	}
	writeJSON(w, http.StatusOK, feed.ToJSON(ev, s.cfg.BaseURL, s.now()))
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	start, end := schedule.Window(now, s.cal.Series().Location(), s.cfg.Export.BackfillDays, s.cfg.Export.HorizonDays)
	evs, err := s.cal.Between(start, end)
	if err != nil {
		appLog.Error("calendar.ics: load failed", err)
		http.Error(w, "failed to load events", http.StatusInternalServerError)
		return
	}
	body := feed.BuildICS(evs, feed.Options{Name: s.cfg.Series.Name, BaseURL: s.cfg.BaseURL, Stamp: now})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

var cardTemplate = template.Must(template.New("card").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: Georgia, serif; background: #1b1b1b; color: #f4ecd8; }
.card { padding: 64px; text-align: center; }
.numeral { font-size: 120px; letter-spacing: 8px; }
.cancelled { text-decoration: line-through; }
</style>
</head>
<body>
<div class="card{{if .Cancelled}} cancelled{{end}}" data-ready="true">
{{if .Numeral}}<div class="numeral">{{.Numeral}}</div>{{end}}
<h1>{{.Title}}</h1>
<p>{{.Date}}</p>
<p>{{.Period}}</p>
<p>{{.Venue}}</p>
{{if .Description}}<p>{{.Description}}</p>{{end}}
</div>
</body>
</html>
`))

type cardData struct {
	Title       string
	Numeral     string
	Date        string
	Period      template.HTML
	Venue       string
	Description string
	Cancelled   bool
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	ev, status, msg := s.lookupNumber(r.PathValue("number"))
	if status != http.StatusOK {
		http.Error(w, msg, status)
		return
	}
	data := cardData{
		Title:       ev.Title(),
		Date:        ev.PrettyDate(),
		Period:      ev.PrettyTimePeriod(),
		Venue:       feed.Venue(ev),
		Description: ev.Description,
		Cancelled:   ev.Cancelled,
	}
	if roman, err := numeral.Roman(ev.Ordinal()); err == nil {
		data.Numeral = roman
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := cardTemplate.Execute(w, data); err != nil {
		appLog.Error("card: render failed", err)
	}
}

// parseNumber accepts "173" or "CLXXIII".
func parseNumber(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	return numeral.ParseRoman(s)
}

func parseDateDefault(s string, loc *time.Location, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseInLocation(events.DateLayout, s, loc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
