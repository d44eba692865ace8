// Package lockfile provides cross-process advisory locks backed by files.
//
// A lock is taken on an open file description, so two acquisitions inside
// the same process exclude each other just like two processes do. Locks are
// released by Unlock or when the process exits.
package lockfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrTimeout is returned when the lock could not be taken before the
// deadline.
var ErrTimeout = errors.New("timed out waiting for lock")

const (
	minPollInterval = 10 * time.Millisecond
	maxPollInterval = 250 * time.Millisecond
)

// Lock is a held advisory lock.
type Lock struct {
	path string
	f    *os.File
}

// Acquire takes an exclusive lock on path, creating the file and its parent
// directories as needed. It polls until the lock is free, ctx is done, or
// timeout elapses. A timeout of zero or less tries exactly once.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	interval := minPollInterval

	for {
		ok, err := tryLock(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		if ok {
			return &Lock{path: path, f: f}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			f.Close()
			return nil, ErrTimeout
		}

		wait := interval
		if wait > remaining {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			f.Close()
			return nil, ctx.Err()
		case <-timer.C:
		}

		if interval < maxPollInterval {
			interval *= 2
		}
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Unlock releases the lock. The lock file is left in place; removing it
// would race with a process that has opened but not yet locked it.
func (l *Lock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
