package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"scrivener/internal/services"
)

// LockFileName is created inside each output directory while a job owns it.
const LockFileName = ".scrivener.lock"

// DirLock is an advisory exclusive lock on an output directory.
type DirLock struct {
	path string
	lock *flock.Flock
}

// LockDir acquires the output directory lock without blocking. A directory
// already held by another process yields a services.ErrValidation error.
func LockDir(outputDir string) (*DirLock, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrValidation, "checkpoint", "lock", outputDir, err)
	}
	path := filepath.Join(outputDir, LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "checkpoint", "lock",
			fmt.Sprintf("output directory %s is in use by another scrivener process", outputDir), nil)
	}
	return &DirLock{path: path, lock: lock}, nil
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks the directory. Safe to call more than once.
func (l *DirLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
