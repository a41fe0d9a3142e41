package index

import (
	"fmt"

	"github.com/gofrs/flock"

	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/fsutil"
)

// Lock is an advisory, exclusive lock on the index of one install root.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the index lock of root without blocking.
func AcquireLock(root string) (*Lock, error) {
	path := fsutil.LockFile(root)
	if err := fsutil.EnsureFileDir(path); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, errors.ErrLocked)
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	return l.fl.Unlock()
}
