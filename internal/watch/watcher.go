package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"scrivener/internal/logging"
)

// Handler processes one media file. Returned errors are logged and the
// watcher moves on to the next file.
type Handler func(ctx context.Context, path string) error

// Interrupter reports whether the operator asked to stop.
type Interrupter interface {
	Interrupted() bool
}

// Options configures a Watcher.
type Options struct {
	// Filter selects files to process; nil accepts everything.
	Filter func(path string) bool
	// Settle is the delay between detecting a file and processing it.
	Settle time.Duration
	// Existing queues matching files already in the directory at start.
	Existing bool
	// Interrupter stops the watcher after the file in progress.
	Interrupter Interrupter
	// PollInterval controls how often the interrupter is checked while idle.
	PollInterval time.Duration
	// QueueSize bounds pending files; 0 uses a default.
	QueueSize int
}

// Watcher processes newly created files in a directory sequentially.
type Watcher struct {
	dir     string
	handler Handler
	opts    Options
	logger  *slog.Logger
	fs      *fsnotify.Watcher
}

// New creates a Watcher on dir.
func New(dir string, handler Handler, opts Options, logger *slog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch handler is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve watch dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch dir %s is not a directory", abs)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	return &Watcher{
		dir:     abs,
		handler: handler,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "watch"),
		fs:      fsw,
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run blocks until ctx is cancelled or the interrupter fires. An interrupt
// returns nil once the file in progress has finished with its context still
// live; cancellation returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	queue := make(chan string, w.opts.QueueSize)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.work(ctx, stop, queue)
	}()
	defer func() {
		close(stop)
		<-done
	}()

	seen := make(map[string]struct{})
	enqueue := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		if w.opts.Filter != nil && !w.opts.Filter(path) {
			w.logger.Debug("ignoring file", logging.String("path", path))
			return
		}
		seen[path] = struct{}{}
		select {
		case queue <- path:
			w.logger.Info("media queued", logging.String("path", path))
		default:
			delete(seen, path)
			logging.WarnWithContext(w.logger, "watch queue full; file skipped", "watch_queue_full",
				logging.String("path", path),
				logging.String(logging.FieldErrorHint, "rerun watch with --existing once the backlog clears"),
				logging.String(logging.FieldImpact, "file not processed"),
			)
		}
	}

	if w.opts.Existing {
		existing, err := w.existingFiles()
		if err != nil {
			return err
		}
		for _, path := range existing {
			enqueue(path)
		}
	}

	w.logger.Info("watching for media", logging.String("dir", w.dir))
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if w.interrupted() {
				w.logger.Info("watch stopped by interrupt")
				return nil
			}
		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				enqueue(event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file events may have been missed"),
			)
		}
	}
}

// work runs the handler for queued files until stop is closed or ctx ends.
// Closing stop never cancels a handler already running.
func (w *Watcher) work(ctx context.Context, stop <-chan struct{}, queue <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case path := <-queue:
			if w.interrupted() {
				return
			}
			if w.opts.Settle > 0 {
				select {
				case <-ctx.Done():
					return
				case <-stop:
					return
				case <-time.After(w.opts.Settle):
				}
			}
			if err := w.handler(ctx, path); err != nil {
				logging.ErrorWithContext(w.logger, "media processing failed", "watch_job_failed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "run `scrivener run` on the file for details"),
				)
			}
		}
	}
}

func (w *Watcher) existingFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("scan watch dir: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(w.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (w *Watcher) interrupted() bool {
	return w.opts.Interrupter != nil && w.opts.Interrupter.Interrupted()
}
