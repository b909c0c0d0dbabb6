//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd

package monitor

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
)

func uname(ctx context.Context) (Uname, error) {
	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return Uname{}, err
	}
	return Uname{
		System:  hi.OS,
		Node:    hi.Hostname,
		Release: hi.PlatformVersion,
		Version: hi.KernelVersion,
		Machine: hi.KernelArch,
	}, nil
}
