//go:build linux || darwin || freebsd || openbsd || netbsd

package monitor

import (
	"context"
	"strings"

	"golang.org/x/sys/unix"
)

func uname(_ context.Context) (Uname, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return Uname{}, err
	}
	return Uname{
		System:  unix.ByteSliceToString(u.Sysname[:]),
		Node:    unix.ByteSliceToString(u.Nodename[:]),
		Release: unix.ByteSliceToString(u.Release[:]),
		Version: strings.TrimSpace(unix.ByteSliceToString(u.Version[:])),
		Machine: unix.ByteSliceToString(u.Machine[:]),
	}, nil
}
