package export

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	appLog "pubstandards/internal/log"
)

// settle is how long the watcher waits after the last change to the
// override file before exporting, so an editor's write+rename is one run.
const settle = 500 * time.Millisecond

// Scheduler re-runs an export on a cron schedule and whenever the override
// file changes.
type Scheduler struct {
	exp       *Exporter
	cron      *cron.Cron
	watchPath string

	mu     sync.Mutex
	timer  *time.Timer
	stopFn func()
}

// NewScheduler validates spec (standard 5-field cron) and prepares the
// schedule. An empty watchPath disables file watching.
func NewScheduler(exp *Exporter, spec string, loc *time.Location, watchPath string) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		exp:       exp,
		cron:      cron.New(cron.WithLocation(loc)),
		watchPath: watchPath,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.exp.Run("cron") }); err != nil {
		return nil, fmt.Errorf("export: refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// Every adds another job, such as an upstream pull, to the same cron.
// It must be called before Start.
func (s *Scheduler) Every(spec string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("export: schedule %q: %w", spec, err)
	}
	return nil
}

// Start begins cron and file watching. Both stop when ctx is done or Stop
// is called.
func (s *Scheduler) Start(ctx context.Context) error {
	var w *fsnotify.Watcher
	if s.watchPath != "" {
		var err error
		w, err = fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("export: watcher: %w", err)
		}
		// Watch the directory: editors often replace the file by rename.
		if err := w.Add(filepath.Dir(s.watchPath)); err != nil {
			w.Close()
			return fmt.Errorf("export: watch %s: %w", s.watchPath, err)
		}
	}

	s.cron.Start()
	appLog.Info("export scheduler started", "entries", len(s.cron.Entries()), "watch", s.watchPath)

	done := make(chan struct{})
	var once sync.Once
	s.mu.Lock()
	s.stopFn = func() { once.Do(func() { close(done) }) }
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		<-s.cron.Stop().Done()
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mu.Unlock()
	}()

	if w != nil {
		go s.watch(ctx, w, done)
	}
	return nil
}

// Stop halts the scheduler. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop := s.stopFn
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (s *Scheduler) watch(ctx context.Context, w *fsnotify.Watcher, done <-chan struct{}) {
	defer w.Close()
	target := filepath.Clean(s.watchPath)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				s.schedule()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			appLog.Error("override watcher error", err, "path", s.watchPath)
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}

func (s *Scheduler) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(settle, func() { s.exp.Run("watch") })
}
