package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"scrivener/internal/fileutil"
	"scrivener/internal/logging"
	"scrivener/internal/services"
)

// CorruptError reports a checkpoint file that exists but cannot be used.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("checkpoint %s unreadable: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// RetryPolicy bounds how long Save keeps retrying a failing write.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy retries a failing write for a few seconds.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     time.Second,
	MaxElapsedTime:  5 * time.Second,
}

// Store reads and writes checkpoints.
type Store struct {
	logger *slog.Logger
	retry  RetryPolicy
	write  func(path string, data []byte, mode os.FileMode) error
}

// Option customizes a Store.
type Option func(*Store)

// WithRetryPolicy overrides the save retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(s *Store) { s.retry = policy }
}

// WithWriter replaces the atomic file writer (used by tests to inject failures).
func WithWriter(write func(path string, data []byte, mode os.FileMode) error) Option {
	return func(s *Store) {
		if write != nil {
			s.write = write
		}
	}
}

// NewStore constructs a Store logging through logger.
func NewStore(logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		logger: logging.NewComponentLogger(logger, "checkpoint"),
		retry:  DefaultRetryPolicy,
		write:  fileutil.WriteFileAtomic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the checkpoint for source in outputDir. A missing file yields
// (nil, nil). A malformed or unreadable file is logged and returned as a
// *CorruptError alongside a nil checkpoint so the caller can start fresh.
func (s *Store) Load(ctx context.Context, sourcePath, outputDir string) (*Checkpoint, error) {
	path := PathFor(sourcePath, outputDir)
	cp, err := readFile(path)
	if err == nil {
		return cp, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	corrupt := &CorruptError{Path: path, Err: err}
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "checkpoint could not be loaded", "checkpoint_load_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "delete the file or rerun with --force"),
		logging.String(logging.FieldImpact, "processing restarts from the beginning"),
	)
	return nil, corrupt
}

// ReadFile loads a checkpoint from an explicit path. Unlike Load, every
// failure is returned: a missing file is tagged services.ErrNotFound and a
// malformed one services.ErrValidation.
func ReadFile(path string) (*Checkpoint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "checkpoint", "resolve", path, err)
	}
	cp, err := readFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "checkpoint", "read", abs, err)
		}
		return nil, services.Wrap(services.ErrValidation, "checkpoint", "read", abs, err)
	}
	return cp, nil
}

func readFile(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if err := cp.validate(); err != nil {
		return nil, err
	}
	cp.OutputDir = filepath.Dir(path)
	cp.ensureSlices()
	return &cp, nil
}

func (c *Checkpoint) validate() error {
	if c.SourcePath == "" {
		return errors.New("checkpoint missing video_path")
	}
	switch c.State {
	case StateNotStarted, StateProcessing, StateCompleted:
	default:
		return fmt.Errorf("checkpoint has unknown status %q", c.State)
	}
	if c.Cursor < 0 {
		return fmt.Errorf("checkpoint has negative current_time %v", c.Cursor)
	}
	return nil
}

// Save writes the full checkpoint, creating the output directory if needed.
// Transient write failures are retried with exponential backoff. The
// in-memory value is never modified.
func (s *Store) Save(ctx context.Context, cp *Checkpoint) error {
	if cp == nil {
		return errors.New("save checkpoint: nil checkpoint")
	}
	if cp.OutputDir == "" {
		return errors.New("save checkpoint: output directory not set")
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	data = append(data, '\n')
	path := cp.Path()

	attempt := 0
	operation := func() error {
		attempt++
		if err := os.MkdirAll(cp.OutputDir, 0o755); err != nil {
			return err
		}
		return s.write(path, data, 0o644)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retry.InitialInterval
	bo.MaxInterval = s.retry.MaxInterval
	bo.MaxElapsedTime = s.retry.MaxElapsedTime

	notify := func(err error, wait time.Duration) {
		s.logger.Debug("checkpoint write failed; retrying",
			logging.String("path", path),
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
			logging.Error(err),
		)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify); err != nil {
		return services.Wrap(services.ErrTransient, "checkpoint", "save", path, err)
	}
	s.logger.Debug("checkpoint saved",
		logging.String("path", path),
		logging.Float64("cursor", cp.Cursor),
		logging.String("state", string(cp.State)),
		logging.Int("segments", len(cp.Transcript)),
	)
	return nil
}

// MarkComplete sets the state to completed and persists. On failure the
// previous state is restored.
func (s *Store) MarkComplete(ctx context.Context, cp *Checkpoint) error {
	previous := cp.State
	cp.State = StateCompleted
	if err := s.Save(ctx, cp); err != nil {
		cp.State = previous
		return err
	}
	return nil
}

// Reset clears all progress and removes the persisted file. A missing file is
// not an error.
func (s *Store) Reset(ctx context.Context, cp *Checkpoint) error {
	snapshot := cp.Clone()
	cp.Transcript = []Segment{}
	cp.Frames = []FrameCapture{}
	cp.Cursor = 0
	cp.State = StateNotStarted
	if err := fileutil.RemoveIfExists(cp.Path()); err != nil {
		cp.restore(snapshot)
		return services.Wrap(services.ErrTransient, "checkpoint", "reset", cp.Path(), err)
	}
	logging.WithContext(ctx, s.logger).Info("checkpoint reset", logging.String("path", cp.Path()))
	return nil
}
