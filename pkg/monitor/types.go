package monitor

import "time"

// Every record carries an Error string. When a query fails the numeric
// fields stay zero and Error says why; other records are unaffected.

// OSInfo describes the running kernel and host.
type OSInfo struct {
	System   string `json:"system"`
	Release  string `json:"release"`
	Version  string `json:"version"`
	Machine  string `json:"machine"`
	Hostname string `json:"hostname"`
	Uptime   string `json:"uptime"`
	Error    string `json:"error,omitempty"`
}

type CPUInfo struct {
	PhysicalCores int       `json:"physical_cores"`
	LogicalCores  int       `json:"logical_cores"`
	PerCore       []float64 `json:"per_core"`
	Total         float64   `json:"total"`
	FrequencyMHz  float64   `json:"frequency_mhz"`
	Model         string    `json:"model"`
	Error         string    `json:"error,omitempty"`
}

// MemoryInfo sizes are GiB rounded to two decimals.
type MemoryInfo struct {
	TotalGiB     float64 `json:"total_gb"`
	AvailableGiB float64 `json:"available_gb"`
	UsedGiB      float64 `json:"used_gb"`
	Percent      float64 `json:"percent"`
	SwapTotalGiB float64 `json:"swap_total_gb"`
	SwapUsedGiB  float64 `json:"swap_used_gb"`
	SwapPercent  float64 `json:"swap_percent"`
	Error        string  `json:"error,omitempty"`
}

type DiskInfo struct {
	Device     string  `json:"device"`
	Mountpoint string  `json:"mountpoint"`
	FSType     string  `json:"fstype"`
	TotalGiB   float64 `json:"total_gb"`
	UsedGiB    float64 `json:"used_gb"`
	FreeGiB    float64 `json:"free_gb"`
	Percent    float64 `json:"percent"`
	Error      string  `json:"error,omitempty"`
}

// Address families reported per interface.
const (
	FamilyMAC  = "MAC"
	FamilyIPv4 = "IPv4"
	FamilyIPv6 = "IPv6"
)

type Address struct {
	Family    string `json:"family"`
	Address   string `json:"address"`
	Netmask   string `json:"netmask,omitempty"`
	Broadcast string `json:"broadcast,omitempty"`
}

type Interface struct {
	Name      string    `json:"name"`
	Addresses []Address `json:"addresses"`
}

type NetCounters struct {
	SentGiB     float64 `json:"bytes_sent_gb"`
	RecvGiB     float64 `json:"bytes_recv_gb"`
	PacketsSent uint64  `json:"packets_sent"`
	PacketsRecv uint64  `json:"packets_recv"`
	ErrIn       uint64  `json:"errin"`
	ErrOut      uint64  `json:"errout"`
	DropIn      uint64  `json:"dropin"`
	DropOut     uint64  `json:"dropout"`
}

type NetworkInfo struct {
	Interfaces []Interface `json:"interfaces"`
	Counters   NetCounters `json:"counters"`
	Error      string      `json:"error,omitempty"`
}

type ProcessInfo struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	User          string  `json:"username"`
	Status        string  `json:"status"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	RSSMiB        float64 `json:"rss_mb"`
	Threads       int32   `json:"num_threads"`
	Cmdline       string  `json:"cmdline"`
}

type ProcessList struct {
	Processes []ProcessInfo `json:"processes"`
	Error     string        `json:"error,omitempty"`
}

type LogTail struct {
	Path  string   `json:"path"`
	Lines []string `json:"lines"`
	Error string   `json:"error,omitempty"`
}

// LoginSummary is the short health line shown before authentication.
type LoginSummary struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
}

// Snapshot aggregates the dashboard records for one request.
type Snapshot struct {
	TakenAt time.Time   `json:"taken_at"`
	OS      OSInfo      `json:"os"`
	CPU     CPUInfo     `json:"cpu"`
	Memory  MemoryInfo  `json:"memory"`
	Disks   []DiskInfo  `json:"disks"`
	Network NetworkInfo `json:"network"`
}
