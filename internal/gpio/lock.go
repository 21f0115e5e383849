package gpio

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DefaultLockDir holds per-line lock files.
const DefaultLockDir = "/run/lock"

// ErrLineBusy is returned when another process holds the line lock.
var ErrLineBusy = errors.New("gpio line already claimed")

// LockLine takes an exclusive, non-blocking file lock for one line so that a
// second reader process cannot bit-bang the same pin. An empty dir disables
// locking and returns a nil lock.
func LockLine(dir, chip string, offset int) (*flock.Flock, error) {
	if dir == "" {
		return nil, nil
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s-%d.lock", Consumer, chip, offset))
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s line %d: %w", chip, offset, ErrLineBusy)
	}
	return fl, nil
}

// unlockLine releases a lock taken by LockLine. Nil locks are ignored.
func unlockLine(fl *flock.Flock) error {
	if fl == nil {
		return nil
	}
	if err := fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", fl.Path(), err)
	}
	return nil
}
