// Package fsatomic persists small state files so that readers observe either
// the previous content or the complete new content, never a partial write.
package fsatomic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// TmpSuffix is appended to the target path for the staging file.
const TmpSuffix = ".tmp"

// ErrInterrupted is returned when a write is abandoned between staging and
// rename. The target file is untouched in that case.
var ErrInterrupted = errors.New("fsatomic: write interrupted before rename")

// beforeRename runs after the staging file is durable and before it replaces
// the target. Tests use it to simulate a crash at that point.
var beforeRename = func(tmp, path string) error { return nil }

// WriteFile writes data to path+".tmp", fsyncs it, renames it over path and
// fsyncs the parent directory. The staging file is removed on any failure.
// A zero perm means 0600. Callers hold WithLock(path) so concurrent readers
// never mistake the live staging file for a stale one.
func WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if perm == 0 {
		perm = 0o600
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + TmpSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	if err := beforeRename(tmp, path); err != nil {
		// the staging file is left behind on purpose, exactly as a crash would
		return fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	if err := rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return fsyncDir(dir)
}

// SaveJSON atomically writes v as indented JSON with a trailing newline.
func SaveJSON(ctx context.Context, path string, v any, perm fs.FileMode) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return WriteFile(ctx, path, append(b, '\n'), perm)
}

// ReadFile returns the committed content of path and whether it exists. A
// staging file left by an interrupted write is removed first, but only while
// holding the path lock: an in-flight writer owns its staging file.
// Callers already inside WithLock for path must use ReadFileLocked.
func ReadFile(path string) ([]byte, bool, error) {
	if _, err := os.Lstat(path + TmpSuffix); err == nil {
		_ = WithLock(path, func() error {
			removeStale(path)
			return nil
		})
	}
	return readCommitted(path)
}

// ReadFileLocked is ReadFile for a caller that holds WithLock on path.
func ReadFileLocked(path string) ([]byte, bool, error) {
	removeStale(path)
	return readCommitted(path)
}

func removeStale(path string) {
	_ = os.Remove(path + TmpSuffix)
}

func readCommitted(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// LoadJSON decodes path into v and reports whether the file exists. An empty
// file exists but leaves v untouched.
func LoadJSON(path string, v any) (bool, error) {
	data, ok, err := ReadFile(path)
	return decodeJSON(data, ok, err, v)
}

// LoadJSONLocked is LoadJSON for a caller that holds WithLock on path.
func LoadJSONLocked(path string, v any) (bool, error) {
	data, ok, err := ReadFileLocked(path)
	return decodeJSON(data, ok, err, v)
}

func decodeJSON(data []byte, ok bool, err error, v any) (bool, error) {
	if err != nil || !ok {
		return ok, err
	}
	if len(data) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, err
	}
	return true, nil
}

// WithLock holds an exclusive advisory lock on path+".lock" while fn runs.
func WithLock(path string, fn func() error) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	unlock, err := lockExclusive(path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

func rename(tmp, path string) error {
	var err error
	for i := 0; i < 5; i++ {
		if err = os.Rename(tmp, path); err == nil {
			return nil
		}
		if runtime.GOOS != "windows" {
			return err
		}
		// destination in use on Windows; back off briefly
		time.Sleep(time.Duration(10*(i+1)) * time.Millisecond)
	}
	return err
}

// fsyncDir persists directory metadata after a rename; no-op on Windows.
func fsyncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
