// Package watcher imports CSV files dropped into a directory.
//
// A file is imported once no write has been seen for the settle delay. Afterwards it is moved
// into processed/ or failed/ below the watched directory, prefixed with the import time.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/editorial-cms/internal/models"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	minTick = 20 * time.Millisecond
)

// Importer imports one file
type Importer interface {
	ImportFile(ctx context.Context, path string, source models.ImportSource) (*models.ImportReport, error)
}

// Stats tracks watcher activity
type Stats struct {
	Imported int
	Failed   int
	Errors   int
	LastFile string
}

// Watcher watches one directory for CSV files
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	dir      string
	settle   time.Duration
	importer Importer
	log      zerolog.Logger
	now      func() time.Time

	pending   map[string]time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
	running   bool
	closeOnce sync.Once
	stats     Stats
}

// New creates a watcher for dir. The directory and its processed/ and failed/ folders are
// created when missing.
func New(dir string, settle time.Duration, importer Importer, log zerolog.Logger) (*Watcher, error) {
	for _, d := range []string{dir, filepath.Join(dir, ProcessedDir), filepath.Join(dir, FailedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsw:      fsw,
		dir:      dir,
		settle:   settle,
		importer: importer,
		log:      log.With().Str("component", "watcher").Str("dir", dir).Logger(),
		now:      time.Now,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Files already in the directory are queued as well.
// It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if running {
		return nil
	}

	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.dir, err)
	}

	// running is only set once there is a run loop to close doneCh
	queued := 0
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	for _, e := range entries {
		if !e.IsDir() && isCSV(e.Name()) {
			w.pending[filepath.Join(w.dir, e.Name())] = w.now()
			queued++
		}
	}
	w.mu.Unlock()

	w.log.Info().Int("queued", queued).Msg("Watcher started")

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for an in-flight import to finish
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	w.closeOnce.Do(func() {
		if err := w.fsw.Close(); err != nil {
			w.log.Error().Err(err).Msg("Failed to close watcher")
		}
	})
	w.log.Info().Msg("Watcher stopped")
}

// Stats returns a copy of the counters
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.settle / 5
	if tick < minTick {
		tick = minTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("Watch error")
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isCSV(event.Name) || filepath.Dir(event.Name) != filepath.Clean(w.dir) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.pending[event.Name] = w.now()
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(w.pending, event.Name)
	}
}

// processSettled imports every queued file that has been quiet for the settle delay
func (w *Watcher) processSettled(ctx context.Context) {
	now := w.now()

	w.mu.Lock()
	var ready []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		w.importFile(ctx, path)
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	report, err := w.importer.ImportFile(ctx, path, models.ImportSourceWatcher)

	target := ProcessedDir
	if err != nil {
		target = FailedDir
		w.log.Error().Err(err).Str("file", path).Msg("Import failed")
	} else {
		w.log.Info().
			Str("file", path).
			Int("created", report.Created).
			Int("updated", report.Updated).
			Int("skipped", report.Skipped).
			Msg("File imported")
	}

	dest := filepath.Join(w.dir, target, w.now().UTC().Format("20060102T150405.000")+"-"+filepath.Base(path))
	if mvErr := os.Rename(path, dest); mvErr != nil {
		w.log.Error().Err(mvErr).Str("file", path).Msg("Failed to move imported file")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.LastFile = filepath.Base(path)
	if err != nil {
		w.stats.Failed++
	} else {
		w.stats.Imported++
	}
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
