// Package runlock serialises merge runs. The pipeline assumes at most one
// merge process at a time; two interleaved full rewrites of the master
// tables would race each other, so callers take this lock first.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrHeld is returned when another merge run currently holds the lock.
var ErrHeld = errors.New("merge already running")

// staleAfter bounds how long a lock file is trusted. A merge run finishes
// in seconds; a lock older than this belongs to a crashed process.
const staleAfter = 15 * time.Minute

// Lock is a held run lock.
type Lock struct {
	path string
}

// Acquire takes the run lock at path, breaking a stale one if needed.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, writeErr := f.WriteString(strconv.Itoa(os.Getpid()))
			closeErr := f.Close()
			if writeErr != nil || closeErr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("write lock file: %w", errors.Join(writeErr, closeErr))
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}

		info, statErr := os.Stat(path)
		if statErr != nil || time.Since(info.ModTime()) < staleAfter {
			return nil, ErrHeld
		}
		// Stale lock from a crashed run; remove and retry once.
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, ErrHeld
		}
	}
	return nil, ErrHeld
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
