//go:build windows

package fsatomic

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/windows"
)

// lockExclusive blocks until it holds an exclusive LockFileEx range on
// lockPath. The lock file is left in place, matching flock semantics on
// other platforms. The returned release func is safe to call more than once.
func lockExclusive(lockPath string) (func(), error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	h := windows.Handle(f.Fd())
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(h, windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, ol); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = windows.UnlockFileEx(h, 0, 1, 0, ol)
			_ = f.Close()
		})
	}, nil
}
