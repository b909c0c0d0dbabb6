// Package panelcfg owns the persisted panel configuration: the password hash
// and the listen port. The file on disk is the only source of truth; callers
// that make security decisions must Load it again instead of caching it.
package panelcfg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"voidpanel/internal/auth/hash"
	"voidpanel/internal/fsatomic"
)

const (
	DefaultPath = "config.json"
	DefaultPort = 417
)

var (
	ErrMissing = errors.New("configuration file not found")
	ErrInvalid = errors.New("configuration file is invalid")
)

type Config struct {
	PasswordHash string `json:"password_hash"`
	Port         int    `json:"port"`
}

const schema = `{
  "type": "object",
  "required": ["password_hash"],
  "properties": {
    "password_hash": {"type": "string", "minLength": 1},
    "port": {"type": "integer", "minimum": 1, "maximum": 65535}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(schema)

type Store struct {
	path string
}

func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Exists reports whether a committed config file is present.
func (s *Store) Exists() bool {
	_, ok, err := fsatomic.ReadFile(s.path)
	return ok && err == nil
}

// Load reads and validates the config file. A missing port means DefaultPort.
func (s *Store) Load() (Config, error) {
	data, ok, err := fsatomic.ReadFile(s.path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrMissing, s.path)
	}
	if err := validateDocument(data); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save validates cfg and replaces the file atomically under an advisory lock.
func (s *Store) Save(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return fsatomic.WithLock(s.path, func() error {
		return fsatomic.SaveJSON(ctx, s.path, cfg, 0o600)
	})
}

// Validate checks the invariants that hold once setup has completed.
func (c Config) Validate() error {
	if c.PasswordHash == "" {
		return fmt.Errorf("%w: password_hash is empty", ErrInvalid)
	}
	if !hash.Recognized(c.PasswordHash) {
		return fmt.Errorf("%w: password_hash is not a supported hash", ErrInvalid)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port)
	}
	return nil
}

func validateDocument(data []byte) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}
