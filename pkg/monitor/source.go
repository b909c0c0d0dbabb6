package monitor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"time"

	"voidpanel/pkg/shell"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Uname mirrors the kernel identification fields.
type Uname struct {
	System  string
	Node    string
	Release string
	Version string
	Machine string
}

// Source is the set of raw host queries the collector builds on. System
// answers them from the running host; tests substitute failures.
type Source interface {
	Uname(ctx context.Context) (Uname, error)
	BootTime(ctx context.Context) (time.Time, error)

	CPUCounts(ctx context.Context, logical bool) (int, error)
	CPUPercent(ctx context.Context, interval time.Duration, perCPU bool) ([]float64, error)
	CPUFrequency(ctx context.Context) (float64, error)
	CPUModel(ctx context.Context) (string, error)

	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error)

	Partitions(ctx context.Context) ([]disk.PartitionStat, error)
	PathExists(path string) bool
	DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error)

	Interfaces(ctx context.Context) (net.InterfaceStatList, error)
	NetCounters(ctx context.Context) (net.IOCountersStat, error)

	Processes(ctx context.Context) ([]ProcessInfo, error)

	TailLines(ctx context.Context, path string, n int) ([]string, error)
}

var errNoCounters = errors.New("no network counters")

// System is the gopsutil-backed Source.
type System struct {
	runner shell.Runner
}

func NewSystem(runner shell.Runner) *System {
	if runner == nil {
		runner = shell.Exec{}
	}
	return &System{runner: runner}
}

func (s *System) Uname(ctx context.Context) (Uname, error) {
	return uname(ctx)
}

func (s *System) BootTime(ctx context.Context) (time.Time, error) {
	bt, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if bt == 0 {
		return time.Time{}, errors.New("boot time unavailable")
	}
	return time.Unix(int64(bt), 0), nil
}

func (s *System) CPUCounts(ctx context.Context, logical bool) (int, error) {
	return cpu.CountsWithContext(ctx, logical)
}

func (s *System) CPUPercent(ctx context.Context, interval time.Duration, perCPU bool) ([]float64, error) {
	return cpu.PercentWithContext(ctx, interval, perCPU)
}

// CPUFrequency is the current clock in MHz. Outside Linux it is whatever
// the OS cpu info reports.
func (s *System) CPUFrequency(ctx context.Context) (float64, error) {
	if runtime.GOOS == "linux" {
		return currentFrequencyMHz(cpuSysfsRoot, procCPUInfo)
	}
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	if len(infos) == 0 {
		return 0, errors.New("no cpu info")
	}
	return infos[0].Mhz, nil
}

// CPUModel prefers lscpu's "Model name:" line and falls back to the
// model reported by the OS cpu info.
func (s *System) CPUModel(ctx context.Context) (string, error) {
	if res, err := s.runner.Run(ctx, 5*time.Second, "lscpu"); err == nil && res.Code == 0 {
		if m := parseLscpuModel(res.Stdout); m != "" {
			return m, nil
		}
	}
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 || strings.TrimSpace(infos[0].ModelName) == "" {
		return "", errors.New("cpu model unavailable")
	}
	return strings.TrimSpace(infos[0].ModelName), nil
}

func parseLscpuModel(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "Model name:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Model name:"))
		}
	}
	return ""
}

func (s *System) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (s *System) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

func (s *System) Partitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, false)
}

func (s *System) PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *System) DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

func (s *System) Interfaces(ctx context.Context) (net.InterfaceStatList, error) {
	return net.InterfacesWithContext(ctx)
}

func (s *System) NetCounters(ctx context.Context) (net.IOCountersStat, error) {
	cs, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return net.IOCountersStat{}, err
	}
	if len(cs) == 0 {
		return net.IOCountersStat{}, errNoCounters
	}
	return cs[0], nil
}

// Processes lists every visible process. A field that cannot be read for a
// given process is left at its zero value.
func (s *System) Processes(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		info := ProcessInfo{PID: p.Pid}
		info.Name, _ = p.NameWithContext(ctx)
		info.User, _ = p.UsernameWithContext(ctx)
		if st, err := p.StatusWithContext(ctx); err == nil && len(st) > 0 {
			info.Status = st[0]
		}
		info.CPUPercent, _ = p.CPUPercentWithContext(ctx)
		if mp, err := p.MemoryPercentWithContext(ctx); err == nil {
			info.MemoryPercent = float64(mp)
		}
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			info.RSSMiB = float64(mi.RSS) / (1 << 20)
		}
		info.Threads, _ = p.NumThreadsWithContext(ctx)
		info.Cmdline, _ = p.CmdlineWithContext(ctx)
		out = append(out, info)
	}
	return out, nil
}

func (s *System) TailLines(ctx context.Context, path string, n int) ([]string, error) {
	return tailLines(ctx, path, n)
}
