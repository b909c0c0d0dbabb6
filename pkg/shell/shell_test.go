//go:build !windows

package shell

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesOutputAndCode(t *testing.T) {
	res, err := Run(context.Background(), 0, "sh", "-c", "echo out; echo err 1>&2; exit 3")
	if err == nil {
		t.Fatal("expected exit error")
	}
	if res.Code != 3 {
		t.Fatalf("code %d", res.Code)
	}
	if strings.TrimSpace(string(res.Stdout)) != "out" || strings.TrimSpace(string(res.Stderr)) != "err" {
		t.Fatalf("output %q %q", res.Stdout, res.Stderr)
	}
}

func TestRunMissingBinary(t *testing.T) {
	res, err := Run(context.Background(), 0, "/nonexistent/voidpanel-binary")
	if err == nil || res.Code != -1 {
		t.Fatalf("want start failure, got code=%d err=%v", res.Code, err)
	}
}

func TestRunTimeout(t *testing.T) {
	_, err := Run(context.Background(), 50*time.Millisecond, "sleep", "5")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
}
