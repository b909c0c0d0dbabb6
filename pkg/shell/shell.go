package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

type Result struct {
	Stdout []byte
	Stderr []byte
	Code   int
}

var ErrTimeout = errors.New("command timed out")

// Runner executes a command; Exec is the real implementation.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error)
}

type Exec struct{}

func (Exec) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	return Run(ctx, timeout, name, args...)
}

// Run executes name with args. A zero timeout means the command runs until
// it exits or ctx is cancelled. Code is -1 when the process never produced
// an exit status.
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	cctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	res := Result{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes(), Code: exitCode(err)}
	if timeout > 0 && errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return res, ErrTimeout
	}
	return res, err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
