package shell

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// lockfile is the single administrative-session lock: commands
// declaring lock=true require exclusive ownership of this file for the
// duration of their action.
type lockfile struct {
	path string
	f    *os.File
}

func newLockfile(path string) *lockfile {
	return &lockfile{path: path}
}

// acquire takes an exclusive, non-blocking flock, retrying once a second
// for up to 20 seconds before giving up.
func (l *lockfile) acquire() error {
	if l.f != nil {
		return nil
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("lockfile open: %w", err)
	}

	deadline := time.Now().Add(20 * time.Second)
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			l.f = f
			return nil
		}
		if time.Now().After(deadline) {
			f.Close()
			return fmt.Errorf("acquire lock %s: timed out: %w", l.path, err)
		}
		time.Sleep(1 * time.Second)
	}
}

func (l *lockfile) release() {
	if l.f == nil {
		return
	}
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	l.f.Close()
	l.f = nil
}
