package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.ConfigPath != "config.json" || cfg.StateDir != DefaultStateDir {
		t.Fatalf("paths: %+v", cfg)
	}
	if cfg.LogLevel != zerolog.InfoLevel {
		t.Fatalf("level: %s", cfg.LogLevel)
	}
	if cfg.RateLoginPer15m != DefaultLoginPer15m || cfg.SyslogPath != DefaultSyslogPath {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.MetricsEnabled || cfg.TrustProxy || cfg.SecureCookies {
		t.Fatalf("toggles should default off: %+v", cfg)
	}
}

func TestYAMLAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yaml")
	data := []byte("" +
		"http:\n  bind: 127.0.0.1\n  port: 8417\n  secureCookies: true\n" +
		"panel:\n  config: /etc/voidpanel/config.json\n  stateDir: /srv/vp\n" +
		"trustProxy: true\n" +
		"logging:\n  level: debug\n" +
		"rate:\n  loginPer15m: 9\n" +
		"metrics:\n  enabled: true\n" +
		"syslog:\n  path: /var/log/messages\n" +
		"notify:\n  urls:\n    - generic://example.com/hook\n")
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		t.Fatal(err)
	}

	// baseline from file
	cfg := Load(cfgPath)
	if cfg.BindHost != "127.0.0.1" || cfg.PortOverride != 8417 {
		t.Fatalf("http from yaml: %s %d", cfg.BindHost, cfg.PortOverride)
	}
	if cfg.ConfigPath != "/etc/voidpanel/config.json" || cfg.StateDir != "/srv/vp" {
		t.Fatalf("panel paths from yaml: %+v", cfg)
	}
	if !cfg.TrustProxy || !cfg.SecureCookies || !cfg.MetricsEnabled {
		t.Fatalf("toggles from yaml: %+v", cfg)
	}
	if cfg.LogLevel.String() != "debug" {
		t.Fatalf("loglevel from yaml: %s", cfg.LogLevel)
	}
	if cfg.RateLoginPer15m != 9 {
		t.Fatalf("rate from yaml: %d", cfg.RateLoginPer15m)
	}
	if cfg.SyslogPath != "/var/log/messages" {
		t.Fatalf("syslog from yaml: %s", cfg.SyslogPath)
	}
	if len(cfg.NotifyURLs) != 1 {
		t.Fatalf("notify from yaml: %v", cfg.NotifyURLs)
	}

	// env overrides file
	t.Setenv("PANEL_CONFIG", "/tmp/other.json")
	t.Setenv("PANEL_STATE_DIR", "/tmp/state")
	t.Setenv("PANEL_BIND", "0.0.0.0")
	t.Setenv("PANEL_PORT", "9000")
	t.Setenv("PANEL_LOG", "warn")
	t.Setenv("PANEL_TRUST_PROXY", "false")
	t.Setenv("PANEL_SECURE_COOKIES", "0")
	t.Setenv("PANEL_METRICS", "off")
	t.Setenv("PANEL_SYSLOG", "/tmp/syslog")
	t.Setenv("PANEL_NOTIFY_URLS", " a://x , ,b://y")
	t.Setenv("PANEL_RATE_LOGIN_PER_15M", "4")

	cfg2 := Load(cfgPath)
	if cfg2.ConfigPath != "/tmp/other.json" || cfg2.StateDir != "/tmp/state" {
		t.Fatalf("paths env override: %+v", cfg2)
	}
	if cfg2.BindHost != "0.0.0.0" || cfg2.PortOverride != 9000 {
		t.Fatalf("http env override: %s %d", cfg2.BindHost, cfg2.PortOverride)
	}
	if cfg2.LogLevel.String() != "warn" {
		t.Fatalf("log env override: %s", cfg2.LogLevel)
	}
	if cfg2.TrustProxy || cfg2.SecureCookies || cfg2.MetricsEnabled {
		t.Fatalf("toggles env override: %+v", cfg2)
	}
	if cfg2.SyslogPath != "/tmp/syslog" || cfg2.RateLoginPer15m != 4 {
		t.Fatalf("misc env override: %+v", cfg2)
	}
	if len(cfg2.NotifyURLs) != 2 || cfg2.NotifyURLs[0] != "a://x" || cfg2.NotifyURLs[1] != "b://y" {
		t.Fatalf("notify env override: %v", cfg2.NotifyURLs)
	}
}

func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv("PANEL_PORT", "99999")
	t.Setenv("PANEL_LOG", "loud")
	t.Setenv("PANEL_METRICS", "maybe")
	t.Setenv("PANEL_RATE_LOGIN_PER_15M", "-1")
	cfg := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if cfg.PortOverride != 0 || cfg.LogLevel != zerolog.InfoLevel || cfg.MetricsEnabled {
		t.Fatalf("invalid env applied: %+v", cfg)
	}
	if cfg.RateLoginPer15m != DefaultLoginPer15m {
		t.Fatalf("rate: %d", cfg.RateLoginPer15m)
	}
}

func TestStatePath(t *testing.T) {
	cfg := Config{StateDir: "/var/lib/voidpanel"}
	if got := cfg.StatePath("sessions.json"); got != "/var/lib/voidpanel/sessions.json" {
		t.Fatalf("state path: %s", got)
	}
}
