package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"

	"scrivener/internal/config"
)

// Store records runs in a SQLite database shared by every scrivener process
// on the machine. A `run` and a `watch` may write to it at the same time.
type Store struct {
	db   *sql.DB
	path string
}

// A write that finds the database locked is retried for up to busyWaitTotal.
const (
	sqliteBusy      = 5
	busyWaitInitial = 10 * time.Millisecond
	busyWaitMax     = 200 * time.Millisecond
	busyWaitTotal   = 2 * time.Second
)

// registryPragmas are applied to every connection through the DSN.
var registryPragmas = []string{
	"busy_timeout(1000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

func registryDSN(dbPath string) string {
	params := make([]string, 0, len(registryPragmas))
	for _, p := range registryPragmas {
		params = append(params, "_pragma="+p)
	}
	return dbPath + "?" + strings.Join(params, "&")
}

func isBusy(err error) bool {
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusy {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// exec runs a write statement, retrying while another process holds the
// write lock. Any other failure is returned at once.
func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = busyWaitInitial
	bo.MaxInterval = busyWaitMax
	bo.MaxElapsedTime = busyWaitTotal

	var res sql.Result
	err := backoff.Retry(func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		if err != nil && !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Open opens the registry under paths.state_dir, creating it on first use.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JobsDatabasePath())
}

// OpenPath opens the registry at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", registryDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open job registry: %w", err)
	}
	// Registry access within a process is serialized.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("job registry %s: %w", dbPath, err)
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database. A nil Store is a no-op.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
