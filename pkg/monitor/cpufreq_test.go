package monitor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCurrentFrequencyFromScaling(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cpu0", "cpufreq", "scaling_cur_freq"), "1200000\n")
	writeFile(t, filepath.Join(root, "cpu1", "cpufreq", "scaling_cur_freq"), "2400000\n")
	// max clock must be ignored
	writeFile(t, filepath.Join(root, "cpu0", "cpufreq", "cpuinfo_max_freq"), "4800000\n")
	writeFile(t, filepath.Join(root, "cpufreq", "scaling_cur_freq"), "9999999\n")

	got, err := currentFrequencyMHz(root, filepath.Join(root, "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if got != 1800 {
		t.Fatalf("got %v MHz, want 1800", got)
	}
}

func TestCurrentFrequencyFallsBackToCPUInfo(t *testing.T) {
	dir := t.TempDir()
	info := filepath.Join(dir, "cpuinfo")
	writeFile(t, info, "processor\t: 0\ncpu MHz\t\t: 1000.000\nprocessor\t: 1\ncpu MHz\t\t: 3000.500\n")

	got, err := currentFrequencyMHz(filepath.Join(dir, "nosys"), info)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2000.25 {
		t.Fatalf("got %v", got)
	}
}

func TestCurrentFrequencyUnavailable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cpuinfo"), "processor\t: 0\nmodel name\t: ARMv8\n")
	got, err := currentFrequencyMHz(filepath.Join(dir, "nosys"), filepath.Join(dir, "cpuinfo"))
	if !errors.Is(err, errNoFrequency) || got != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestParseCPUInfoMHz(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"cpu MHz\t\t: 2400.000\n", 2400, true},
		{"cpu MHz : garbage\ncpu MHz : 800\n", 800, true},
		{"cpu MHz dynamic : 100\n", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseCPUInfoMHz([]byte(c.in))
		if got != c.want || ok != c.ok {
			t.Errorf("parseCPUInfoMHz(%q)=%v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
