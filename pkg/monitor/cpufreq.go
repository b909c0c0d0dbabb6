package monitor

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Linux sources for the current clock. gopsutil's cpu.Info reports
// cpuinfo_max_freq on Linux, so the live value is read here instead.
const (
	cpuSysfsRoot = "/sys/devices/system/cpu"
	procCPUInfo  = "/proc/cpuinfo"
)

var errNoFrequency = errors.New("current cpu frequency unavailable")

// currentFrequencyMHz averages scaling_cur_freq (kHz) over all cores, then
// falls back to the "cpu MHz" lines of cpuinfo.
func currentFrequencyMHz(sysRoot, cpuinfo string) (float64, error) {
	if mhz, ok := scalingCurFreqMHz(sysRoot); ok {
		return mhz, nil
	}
	if b, err := os.ReadFile(cpuinfo); err == nil {
		if mhz, ok := parseCPUInfoMHz(b); ok {
			return mhz, nil
		}
	}
	return 0, errNoFrequency
}

func scalingCurFreqMHz(root string) (float64, bool) {
	files, _ := filepath.Glob(filepath.Join(root, "cpu[0-9]*", "cpufreq", "scaling_cur_freq"))
	var sum float64
	n := 0
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		khz, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil || khz <= 0 {
			continue
		}
		sum += khz
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n) / 1000, true
}

func parseCPUInfoMHz(b []byte) (float64, bool) {
	sc := bufio.NewScanner(bytes.NewReader(b))
	var sum float64
	n := 0
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "cpu MHz" {
			continue
		}
		mhz, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || mhz <= 0 {
			continue
		}
		sum += mhz
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
