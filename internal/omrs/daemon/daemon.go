// Package daemon re-runs an import whenever one of its input files changes.
//
// The daemon:
//  1. Runs once at startup
//  2. Watches the directories holding the input files
//  3. Queues changes to the input files and waits for them to settle
//  4. Runs again, one run at a time, until the context is cancelled
package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ashokraman/ocl-omrs/internal/logging"
)

// RunFunc performs one run over the input files.
type RunFunc func(ctx context.Context) error

// Config holds configuration for the daemon.
type Config struct {
	// Debounce is how long the input files must stay quiet before a run.
	// Editors and exporters often write a file in several steps.
	Debounce time.Duration

	Logger *logging.Logger
}

// MinDebounce is the shortest debounce interval. Shorter values are raised
// to it.
const MinDebounce = 10 * time.Millisecond

// DefaultConfig returns the defaults used by the watch command.
func DefaultConfig() Config {
	return Config{Debounce: 500 * time.Millisecond}
}

// Daemon watches input files and triggers runs.
type Daemon struct {
	files  map[string]bool
	dirs   []string
	run    RunFunc
	config Config
	logger *logging.Logger

	watcher *fsnotify.Watcher
	ready   chan struct{}

	changeQueue   map[string]time.Time // path -> last event
	changeQueueMu sync.Mutex

	runs   atomic.Int64
	failed atomic.Int64
}

// New creates a daemon that calls run whenever one of files changes.
func New(run RunFunc, files []string, config Config) (*Daemon, error) {
	if run == nil {
		return nil, fmt.Errorf("run cannot be nil")
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	switch {
	case config.Debounce <= 0:
		config.Debounce = DefaultConfig().Debounce
	case config.Debounce < MinDebounce:
		config.Debounce = MinDebounce
	}

	d := &Daemon{
		files:       make(map[string]bool, len(files)),
		run:         run,
		config:      config,
		logger:      logging.OrNop(config.Logger).With("component", "watch"),
		changeQueue: make(map[string]time.Time),
		ready:       make(chan struct{}),
	}

	seen := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		d.files[abs] = true
		// Watch the directory: atomic replacements swap the file's inode.
		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			d.dirs = append(d.dirs, dir)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	d.watcher = watcher
	return d, nil
}

// Ready is closed once the initial run is done and the watches are in place.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Runs returns how many runs have completed, successful or not.
func (d *Daemon) Runs() int64 {
	return d.runs.Load()
}

// Failures returns how many runs returned an error.
func (d *Daemon) Failures() int64 {
	return d.failed.Load()
}

// Start performs the initial run, then watches until ctx is cancelled.
// A failing initial run is returned; later failures are logged and the
// daemon keeps watching.
func (d *Daemon) Start(ctx context.Context) error {
	defer d.watcher.Close()

	d.logger.Info("starting watch", "files", len(d.files), "debounce", d.config.Debounce.String())

	if err := d.runOnce(ctx); err != nil {
		return fmt.Errorf("initial run failed: %w", err)
	}

	for _, dir := range d.dirs {
		if err := d.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	close(d.ready)

	ticker := time.NewTicker(d.config.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutdown signal received")
			return nil

		case event, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !d.files[abs] {
				continue
			}
			d.logger.Debug("file event", "op", event.Op.String(), "path", abs)
			d.queueChange(abs)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("watcher error", "error", err)

		case <-ticker.C:
			if d.settled(time.Now()) {
				if err := d.runOnce(ctx); err != nil {
					d.logger.Error("run failed", "error", err)
				}
			}
		}
	}
}

// queueChange records a change to path.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// settled reports whether changes are queued and all of them are older
// than the debounce interval. When it returns true the queue is cleared.
func (d *Daemon) settled(now time.Time) bool {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	if len(d.changeQueue) == 0 {
		return false
	}
	for _, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.Debounce {
			return false
		}
	}
	for path := range d.changeQueue {
		d.logger.Info("processing change", "path", path)
		delete(d.changeQueue, path)
	}
	return true
}

func (d *Daemon) runOnce(ctx context.Context) error {
	start := time.Now()
	err := d.run(ctx)
	d.runs.Add(1)
	if err != nil {
		d.failed.Add(1)
		return err
	}
	d.logger.Info("run complete", "elapsed", time.Since(start).String())
	return nil
}
