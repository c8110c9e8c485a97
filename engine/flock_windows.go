//go:build windows

package engine

import (
	"fmt"
	"os"
)

// Windows: no syscall.Flock. The lock file is opened but two engines on the
// same data directory are not kept apart.

// tryLock opens the lock file without taking a cross-process lock.
func tryLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

// releaseLock closes the lock file.
func releaseLock(f *os.File) {
	if f == nil {
		return
	}
	_ = f.Close()
}
