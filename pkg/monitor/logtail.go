package monitor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nxadm/tail"
)

// tailWindow bounds how much of a large log is scanned for the last lines.
const tailWindow = 256 << 10

// tailLines returns up to n trailing lines of path.
func tailLines(ctx context.Context, path string, n int) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	var offset int64
	if fi.Size() > tailWindow {
		offset = fi.Size() - tailWindow
	}
	t, err := tail.TailFile(path, tail.Config{
		Follow:    false,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
	})
	if err != nil {
		return nil, err
	}
	defer t.Cleanup()

	lines := make([]string, 0, n)
	// reading from the middle of the file: the first line is partial
	skip := offset > 0
	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil, ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				if err := t.Wait(); err != nil {
					return nil, err
				}
				return lines, nil
			}
			if line.Err != nil {
				_ = t.Stop()
				return nil, line.Err
			}
			if skip {
				skip = false
				continue
			}
			lines = append(lines, line.Text)
			if len(lines) > n {
				lines = lines[len(lines)-n:]
			}
		}
	}
}
