//go:build unix

package registry

import (
	"fmt"
	"os"
	"syscall"
)

// fileLock is an advisory, process-wide lock on a sidecar file.
// It serializes read-modify-write cycles between processes sharing a catalog.
type fileLock struct {
	path string
	f    *os.File
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

// Lock blocks until the exclusive lock is held.
func (l *fileLock) Lock() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	l.f = f
	return nil
}

// Unlock releases the lock. Safe to call when not locked.
func (l *fileLock) Unlock() error {
	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return f.Close()
}
