//go:build !windows

package fsatomic

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// lockExclusive blocks until it holds flock(LOCK_EX) on lockPath. The
// returned release func is safe to call more than once.
func lockExclusive(lockPath string) (func(), error) {
	fd, err := unix.Open(lockPath, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: lockPath, Err: err}
	}
	for {
		err = unix.Flock(fd, unix.LOCK_EX)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("flock %s: %w", lockPath, err)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = unix.Flock(fd, unix.LOCK_UN)
			_ = unix.Close(fd)
		})
	}, nil
}
