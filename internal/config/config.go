// Package config holds the runtime settings of the panel server. The
// persisted password document lives in panelcfg; this package only decides
// where things are and how the process behaves.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSettingsPath = "/etc/voidpanel/settings.yaml"
	DefaultStateDir     = "/var/lib/voidpanel"
	DefaultSyslogPath   = "/var/log/syslog"
	DefaultBindHost     = "0.0.0.0"
	DefaultLoginPer15m  = 10
)

type Config struct {
	// ConfigPath is the JSON document written by voidpanel-setup.
	ConfigPath string
	StateDir   string
	BindHost   string
	// PortOverride replaces the port from ConfigPath when non-zero.
	PortOverride int
	LogLevel     zerolog.Level

	TrustProxy     bool
	SecureCookies  bool
	MetricsEnabled bool

	SyslogPath      string
	NotifyURLs      []string
	RateLoginPer15m int
}

type fileSettings struct {
	HTTP struct {
		Bind          string `yaml:"bind"`
		Port          int    `yaml:"port"`
		SecureCookies *bool  `yaml:"secureCookies"`
	} `yaml:"http"`
	Panel struct {
		Config   string `yaml:"config"`
		StateDir string `yaml:"stateDir"`
	} `yaml:"panel"`
	TrustProxy *bool `yaml:"trustProxy"`
	Logging    struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Rate struct {
		LoginPer15m int `yaml:"loginPer15m"`
	} `yaml:"rate"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Syslog struct {
		Path string `yaml:"path"`
	} `yaml:"syslog"`
	Notify struct {
		URLs []string `yaml:"urls"`
	} `yaml:"notify"`
}

// Defaults returns the settings used when neither a file nor the
// environment says otherwise.
func Defaults() Config {
	return Config{
		ConfigPath:      "config.json",
		StateDir:        DefaultStateDir,
		BindHost:        DefaultBindHost,
		LogLevel:        zerolog.InfoLevel,
		SyslogPath:      DefaultSyslogPath,
		RateLoginPer15m: DefaultLoginPer15m,
	}
}

// FromEnv loads the settings file named by PANEL_SETTINGS (or the default
// location) and applies environment overrides.
func FromEnv() Config {
	path := os.Getenv("PANEL_SETTINGS")
	if path == "" {
		path = DefaultSettingsPath
	}
	return Load(path)
}

// Load reads path if it exists, then applies environment overrides. A
// missing or unreadable file yields the defaults.
func Load(path string) Config {
	cfg := Defaults()
	if b, err := os.ReadFile(path); err == nil {
		var fs fileSettings
		if yaml.Unmarshal(b, &fs) == nil {
			applyFile(&cfg, fs)
		}
	}
	applyEnv(&cfg)
	return cfg
}

func applyFile(cfg *Config, fs fileSettings) {
	if fs.HTTP.Bind != "" {
		cfg.BindHost = fs.HTTP.Bind
	}
	if fs.HTTP.Port > 0 && fs.HTTP.Port <= 65535 {
		cfg.PortOverride = fs.HTTP.Port
	}
	if fs.HTTP.SecureCookies != nil {
		cfg.SecureCookies = *fs.HTTP.SecureCookies
	}
	if fs.Panel.Config != "" {
		cfg.ConfigPath = fs.Panel.Config
	}
	if fs.Panel.StateDir != "" {
		cfg.StateDir = fs.Panel.StateDir
	}
	if fs.TrustProxy != nil {
		cfg.TrustProxy = *fs.TrustProxy
	}
	if l, err := zerolog.ParseLevel(fs.Logging.Level); err == nil && fs.Logging.Level != "" {
		cfg.LogLevel = l
	}
	if fs.Rate.LoginPer15m > 0 {
		cfg.RateLoginPer15m = fs.Rate.LoginPer15m
	}
	if fs.Metrics.Enabled != nil {
		cfg.MetricsEnabled = *fs.Metrics.Enabled
	}
	if fs.Syslog.Path != "" {
		cfg.SyslogPath = fs.Syslog.Path
	}
	if len(fs.Notify.URLs) > 0 {
		cfg.NotifyURLs = append([]string(nil), fs.Notify.URLs...)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PANEL_CONFIG"); v != "" {
		cfg.ConfigPath = v
	}
	if v := os.Getenv("PANEL_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("PANEL_BIND"); v != "" {
		cfg.BindHost = v
	}
	if v := os.Getenv("PANEL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			cfg.PortOverride = p
		}
	}
	if v := os.Getenv("PANEL_LOG"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			cfg.LogLevel = l
		}
	}
	if v, ok := envBool("PANEL_TRUST_PROXY"); ok {
		cfg.TrustProxy = v
	}
	if v, ok := envBool("PANEL_SECURE_COOKIES"); ok {
		cfg.SecureCookies = v
	}
	if v, ok := envBool("PANEL_METRICS"); ok {
		cfg.MetricsEnabled = v
	}
	if v := os.Getenv("PANEL_SYSLOG"); v != "" {
		cfg.SyslogPath = v
	}
	if v := os.Getenv("PANEL_NOTIFY_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		cfg.NotifyURLs = urls
	}
	if v := os.Getenv("PANEL_RATE_LOGIN_PER_15M"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLoginPer15m = n
		}
	}
}

func envBool(key string) (bool, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// StatePath joins name onto the state directory.
func (c Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}
