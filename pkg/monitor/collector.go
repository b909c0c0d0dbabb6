// Package monitor answers the dashboard's host queries. Nothing here returns
// an error to the caller: each record carries its own failure text so one
// broken subsystem never blanks a whole page.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

const (
	DefaultLogPath   = "/var/log/syslog"
	DefaultLogLines  = 200
	DefaultCPUSample = 500 * time.Millisecond
	UnknownModel     = "Unknown"
	uptimeUnknown    = "N/A"
)

// skipped filesystem types: optical media and entries without a type.
var skipFSTypes = map[string]bool{"": true, "iso9660": true, "udf": true}

// Collector turns Source queries into error-tagged records.
type Collector struct {
	src      Source
	logger   zerolog.Logger
	logPath  string
	logLines int
	sample   time.Duration
	now      func() time.Time
}

type Option func(*Collector)

func WithLogPath(path string) Option {
	return func(c *Collector) {
		if path != "" {
			c.logPath = path
		}
	}
}

func WithCPUSample(d time.Duration) Option { return func(c *Collector) { c.sample = d } }

func WithClock(now func() time.Time) Option { return func(c *Collector) { c.now = now } }

// NewCollector creates a collector over src.
func NewCollector(logger zerolog.Logger, src Source, opts ...Option) *Collector {
	c := &Collector{
		src:      src,
		logger:   logger.With().Str("component", "metrics-collector").Logger(),
		logPath:  DefaultLogPath,
		logLines: DefaultLogLines,
		sample:   DefaultCPUSample,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LogPath is the file tailed by Logs.
func (c *Collector) LogPath() string { return c.logPath }

// errs accumulates failure text for one record.
type errs []string

func (e *errs) add(what string, err error) {
	if err != nil {
		*e = append(*e, fmt.Sprintf("%s: %v", what, err))
	}
}

func (e errs) String() string { return strings.Join(e, "; ") }

// recoverRecord turns a panic in a Source query into the record's error.
// It must be deferred directly.
func (c *Collector) recoverRecord(what string, set func(msg string)) {
	if r := recover(); r != nil {
		c.logger.Error().Str("record", what).Interface("panic", r).Msg("collector query panicked")
		set(fmt.Sprintf("%s: panic: %v", what, r))
	}
}

// recoverErr stores a panic in err. It must be deferred directly.
func recoverErr(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}

// OS reports kernel identification and uptime.
func (c *Collector) OS(ctx context.Context) (out OSInfo) {
	defer c.recoverRecord("os", func(msg string) { out = OSInfo{Uptime: uptimeUnknown, Error: msg} })
	var fail errs
	u, err := c.src.Uname(ctx)
	fail.add("uname", err)
	out.System, out.Release, out.Version, out.Machine, out.Hostname = u.System, u.Release, u.Version, u.Machine, u.Node
	out.Uptime = uptimeUnknown
	if bt, err := c.src.BootTime(ctx); err == nil {
		out.Uptime = formatUptime(c.now().Sub(bt))
	} else {
		c.logger.Debug().Err(err).Msg("boot time unavailable")
	}
	out.Error = fail.String()
	return out
}

// CPU samples per-core and overall utilisation concurrently over the
// configured window, so the call blocks for roughly one window.
func (c *Collector) CPU(ctx context.Context) (out CPUInfo) {
	defer c.recoverRecord("cpu", func(msg string) { out = CPUInfo{PerCore: []float64{}, Model: UnknownModel, Error: msg} })
	var fail errs

	var wg sync.WaitGroup
	var perCore, total []float64
	var perErr, totErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer recoverErr(&perErr)
		perCore, perErr = c.src.CPUPercent(ctx, c.sample, true)
	}()
	go func() {
		defer wg.Done()
		defer recoverErr(&totErr)
		total, totErr = c.src.CPUPercent(ctx, c.sample, false)
	}()

	phys, err := c.src.CPUCounts(ctx, false)
	fail.add("physical cores", err)
	logical, err := c.src.CPUCounts(ctx, true)
	fail.add("logical cores", err)
	out.PhysicalCores, out.LogicalCores = phys, logical

	if f, err := c.src.CPUFrequency(ctx); err == nil {
		out.FrequencyMHz = round2(f)
	}
	out.Model = UnknownModel
	if m, err := c.src.CPUModel(ctx); err == nil && strings.TrimSpace(m) != "" {
		out.Model = strings.TrimSpace(m)
	}

	wg.Wait()
	fail.add("per-core usage", perErr)
	fail.add("usage", totErr)
	out.PerCore = make([]float64, 0, len(perCore))
	for _, p := range perCore {
		out.PerCore = append(out.PerCore, round2(p))
	}
	if len(total) > 0 {
		out.Total = round2(total[0])
	}
	out.Error = fail.String()
	return out
}

func (c *Collector) Memory(ctx context.Context) (out MemoryInfo) {
	defer c.recoverRecord("memory", func(msg string) { out = MemoryInfo{Error: msg} })
	var fail errs
	if vm, err := c.src.VirtualMemory(ctx); err == nil && vm != nil {
		out.TotalGiB = toGiB(vm.Total)
		out.AvailableGiB = toGiB(vm.Available)
		out.UsedGiB = toGiB(vm.Used)
		out.Percent = round2(vm.UsedPercent)
	} else {
		fail.add("memory", err)
	}
	if sw, err := c.src.SwapMemory(ctx); err == nil && sw != nil {
		out.SwapTotalGiB = toGiB(sw.Total)
		out.SwapUsedGiB = toGiB(sw.Used)
		out.SwapPercent = round2(sw.UsedPercent)
	} else {
		fail.add("swap", err)
	}
	out.Error = fail.String()
	return out
}

func skipPartition(p disk.PartitionStat) bool {
	if skipFSTypes[p.Fstype] {
		return true
	}
	for _, o := range p.Opts {
		if strings.Contains(o, "cdrom") {
			return true
		}
	}
	return false
}

// Disks lists mounted partitions with usage. A partition that cannot be
// measured is still listed, with Percent 0 and an error.
func (c *Collector) Disks(ctx context.Context) (out []DiskInfo) {
	defer c.recoverRecord("disks", func(msg string) { out = []DiskInfo{{Error: msg}} })
	parts, err := c.src.Partitions(ctx)
	if err != nil {
		return []DiskInfo{{Error: err.Error()}}
	}
	out = make([]DiskInfo, 0, len(parts))
	for _, p := range parts {
		if skipPartition(p) {
			continue
		}
		d := DiskInfo{Device: p.Device, Mountpoint: p.Mountpoint, FSType: p.Fstype}
		if !c.src.PathExists(p.Mountpoint) {
			d.Error = "Mountpoint not accessible or does not exist"
			out = append(out, d)
			continue
		}
		u, err := c.src.DiskUsage(ctx, p.Mountpoint)
		if err != nil || u == nil {
			if err == nil {
				err = fmt.Errorf("no usage data")
			}
			d.Error = "Could not get usage: " + err.Error()
			out = append(out, d)
			continue
		}
		d.TotalGiB = toGiB(u.Total)
		d.UsedGiB = toGiB(u.Used)
		d.FreeGiB = toGiB(u.Free)
		d.Percent = round2(u.UsedPercent)
		out = append(out, d)
	}
	return out
}

func (c *Collector) Network(ctx context.Context) (out NetworkInfo) {
	defer c.recoverRecord("network", func(msg string) { out = NetworkInfo{Error: msg} })
	var fail errs
	ifs, err := c.src.Interfaces(ctx)
	fail.add("interfaces", err)
	for _, it := range ifs {
		iface := Interface{Name: it.Name, Addresses: []Address{}}
		if it.HardwareAddr != "" {
			iface.Addresses = append(iface.Addresses, Address{Family: FamilyMAC, Address: it.HardwareAddr})
		}
		for _, a := range it.Addrs {
			if addr, ok := describeAddr(a.Addr); ok {
				iface.Addresses = append(iface.Addresses, addr)
			}
		}
		out.Interfaces = append(out.Interfaces, iface)
	}
	if io, err := c.src.NetCounters(ctx); err == nil {
		out.Counters = NetCounters{
			SentGiB:     toGiB(io.BytesSent),
			RecvGiB:     toGiB(io.BytesRecv),
			PacketsSent: io.PacketsSent,
			PacketsRecv: io.PacketsRecv,
			ErrIn:       io.Errin,
			ErrOut:      io.Errout,
			DropIn:      io.Dropin,
			DropOut:     io.Dropout,
		}
	} else {
		fail.add("counters", err)
	}
	out.Error = fail.String()
	return out
}

// Processes returns every process sorted by memory share, largest first.
func (c *Collector) Processes(ctx context.Context) (out ProcessList) {
	defer c.recoverRecord("processes", func(msg string) { out = ProcessList{Processes: []ProcessInfo{}, Error: msg} })
	procs, err := c.src.Processes(ctx)
	if err != nil {
		return ProcessList{Processes: []ProcessInfo{}, Error: err.Error()}
	}
	for i := range procs {
		procs[i].CPUPercent = round2(procs[i].CPUPercent)
		procs[i].MemoryPercent = round2(procs[i].MemoryPercent)
		procs[i].RSSMiB = round2(procs[i].RSSMiB)
	}
	sort.SliceStable(procs, func(i, j int) bool {
		return procs[i].MemoryPercent > procs[j].MemoryPercent
	})
	return ProcessList{Processes: procs}
}

// Logs returns the tail of the configured system log.
func (c *Collector) Logs(ctx context.Context) (out LogTail) {
	defer c.recoverRecord("logs", func(msg string) { out = LogTail{Path: c.logPath, Lines: []string{}, Error: msg} })
	out = LogTail{Path: c.logPath, Lines: []string{}}
	lines, err := c.src.TailLines(ctx, c.logPath, c.logLines)
	if err != nil {
		out.Error = fmt.Sprintf("Could not read %s: %v", c.logPath, err)
		return out
	}
	out.Lines = lines
	return out
}

// LoginSummary is cheap enough for an unauthenticated page: the CPU figure
// is the usage since the previous call rather than a fresh sample.
func (c *Collector) LoginSummary(ctx context.Context) (out LoginSummary) {
	defer c.recoverRecord("summary", func(string) { out = LoginSummary{} })
	if p, err := c.src.CPUPercent(ctx, 0, false); err == nil && len(p) > 0 {
		out.CPUPercent = round2(p[0])
	}
	if vm, err := c.src.VirtualMemory(ctx); err == nil && vm != nil {
		out.MemoryPercent = round2(vm.UsedPercent)
	}
	if u, err := c.src.DiskUsage(ctx, "/"); err == nil && u != nil {
		out.DiskPercent = round2(u.UsedPercent)
		return out
	}
	for _, d := range c.Disks(ctx) {
		if d.Error == "" {
			out.DiskPercent = d.Percent
			break
		}
	}
	return out
}

// Snapshot gathers the dashboard records in parallel.
func (c *Collector) Snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{TakenAt: c.now().UTC()}
	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); snap.OS = c.OS(ctx) }()
	go func() { defer wg.Done(); snap.CPU = c.CPU(ctx) }()
	go func() { defer wg.Done(); snap.Memory = c.Memory(ctx) }()
	go func() { defer wg.Done(); snap.Disks = c.Disks(ctx) }()
	go func() { defer wg.Done(); snap.Network = c.Network(ctx) }()
	wg.Wait()
	return snap
}
