// Package power runs the host reboot and shutdown commands through sudo.
package power

import (
	"context"
	"os"
	"strings"

	"voidpanel/pkg/shell"
)

// Result is what a caller reports back to the operator.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	// Code is the exit status; -1 if the command could not be started.
	Code int `json:"-"`
}

type action struct {
	label     string
	binaries  []string
	args      []string
	okMessage string
}

var (
	reboot = action{
		label:     "Reboot",
		binaries:  []string{"/sbin/reboot", "/usr/sbin/reboot"},
		okMessage: "Reboot command sent.",
	}
	shutdown = action{
		label:     "Shutdown",
		binaries:  []string{"/sbin/shutdown", "/usr/sbin/shutdown"},
		args:      []string{"-h", "now"},
		okMessage: "Shutdown command sent.",
	}
)

// Executor issues privileged power commands. The zero value is not usable;
// construct with New.
type Executor struct {
	runner shell.Runner
	exists func(path string) bool
	sudo   string
}

type Option func(*Executor)

// WithRunner replaces command execution.
func WithRunner(r shell.Runner) Option { return func(e *Executor) { e.runner = r } }

// WithStat replaces the binary existence check.
func WithStat(fn func(path string) bool) Option { return func(e *Executor) { e.exists = fn } }

func New(opts ...Option) *Executor {
	e := &Executor{runner: shell.Exec{}, exists: fileExists, sudo: "sudo"}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Reboot asks the host to restart. The command runs without a timeout and
// is never retried.
func (e *Executor) Reboot(ctx context.Context) Result { return e.run(ctx, reboot) }

// Shutdown asks the host to halt.
func (e *Executor) Shutdown(ctx context.Context) Result { return e.run(ctx, shutdown) }

// command picks the first installed binary, else the last candidate.
func (e *Executor) command(a action) []string {
	bin := a.binaries[len(a.binaries)-1]
	for _, b := range a.binaries {
		if e.exists(b) {
			bin = b
			break
		}
	}
	return append([]string{bin}, a.args...)
}

func (e *Executor) run(ctx context.Context, a action) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{OK: false, Code: -1, Message: "Exception: " + panicText(p)}
		}
	}()
	argv := e.command(a)
	out, err := e.runner.Run(ctx, 0, e.sudo, argv...)
	if err != nil && out.Code == -1 {
		return Result{OK: false, Code: -1, Message: "Exception: " + err.Error()}
	}
	if out.Code == 0 && err == nil {
		return Result{OK: true, Code: 0, Message: a.okMessage}
	}
	detail := strings.TrimSpace(string(out.Stderr))
	if detail == "" {
		detail = strings.TrimSpace(string(out.Stdout))
	}
	if detail == "" {
		detail = "Unknown error"
	}
	return Result{OK: false, Code: out.Code, Message: a.label + " failed: " + detail}
}

func panicText(p any) string {
	switch v := p.(type) {
	case error:
		return v.Error()
	case string:
		return v
	}
	return "unexpected failure"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
