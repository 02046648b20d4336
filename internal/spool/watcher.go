// Package spool pushes envelope files dropped into a directory.
package spool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/logzship/internal/domain"
	"github.com/bft-labs/logzship/pkg/log"
)

// FailedSuffix is appended to files holding an unusable envelope.
const FailedSuffix = ".failed"

// Pusher pushes one envelope document.
type Pusher interface {
	Push(ctx context.Context, doc []byte) error
}

// Config holds configuration options for the spool watcher.
type Config struct {
	// Dir is the watched directory.
	Dir string

	// Pattern selects envelope files by base name.
	// Default: "*.json"
	Pattern string

	// SettleDelay is how long a file must go without writes before it is pushed.
	// Default: 500 milliseconds
	SettleDelay time.Duration
}

// Watcher pushes every envelope file written into a directory, one at a
// time, and removes it once pushed. A file whose push fails with a server
// error stays in place; a file with an invalid envelope is renamed with
// FailedSuffix.
type Watcher struct {
	dir         string
	pattern     string
	settleDelay time.Duration
	pusher      Pusher
	logger      log.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	ready  chan string
}

// New creates a watcher for cfg.Dir.
func New(cfg Config, pusher Pusher, logger log.Logger) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("spool dir is required")
	}
	if cfg.Pattern == "" {
		cfg.Pattern = "*.json"
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("spool pattern %q: %w", cfg.Pattern, err)
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{
		dir:         cfg.Dir,
		pattern:     cfg.Pattern,
		settleDelay: cfg.SettleDelay,
		pusher:      pusher,
		logger:      logger.With(log.Component("spool"), log.String("dir", cfg.Dir)),
		timers:      make(map[string]*time.Timer),
		ready:       make(chan string, 64),
	}, nil
}

// Run pushes the files already in the directory, then watches for new
// ones until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	defer w.stopTimers()

	w.logger.Info("watching spool directory", log.String("pattern", w.pattern))

	existing, err := filepath.Glob(filepath.Join(w.dir, w.pattern))
	if err != nil {
		return err
	}
	for _, path := range existing {
		if ctx.Err() != nil {
			return nil
		}
		w.process(ctx, path)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.cancel(event.Name)
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounce(ctx, event.Name)
		case path := <-w.ready:
			w.process(ctx, path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("spool watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) matches(path string) bool {
	ok, _ := filepath.Match(w.pattern, filepath.Base(path))
	return ok
}

// debounce schedules path once it has been quiet for the settle delay.
func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.settleDelay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// process pushes one file and disposes of it according to the outcome.
func (w *Watcher) process(ctx context.Context, path string) {
	logger := w.logger.With(log.String("file", filepath.Base(path)))

	doc, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Error("read spool file", log.Err(err))
		}
		return
	}

	err = w.pusher.Push(ctx, doc)
	switch {
	case err == nil:
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Error("remove pushed spool file", log.Err(err))
			return
		}
		logger.Info("pushed spool file", log.Int("bytes", len(doc)))
	case errors.Is(err, domain.ErrInvalidEnvelope):
		logger.Error("invalid envelope, setting file aside", log.Err(err))
		if err := os.Rename(path, path+FailedSuffix); err != nil {
			logger.Error("rename invalid spool file", log.Err(err))
		}
	default:
		logger.Error("push spool file failed, leaving it in place", log.Err(err))
	}
}
