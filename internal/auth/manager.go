// Package auth implements the single shared-password credential flows.
package auth

import (
	"context"
	"errors"
	"fmt"

	"voidpanel/internal/auth/hash"
	"voidpanel/internal/panelcfg"
)

// MinPasswordLen applies to password changes. Setup only rejects empty input.
const MinPasswordLen = 8

var (
	ErrNotConfigured      = errors.New("panel not configured")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrInvalidCurrent     = errors.New("invalid current password")
	ErrPasswordEmpty      = errors.New("new password cannot be empty")
	ErrPasswordTooShort   = fmt.Errorf("new password must be at least %d characters", MinPasswordLen)
	ErrPasswordMismatch   = errors.New("new password and confirmation do not match")
)

// ConfigStore is the persistence the manager needs; *panelcfg.Store satisfies it.
type ConfigStore interface {
	Load() (panelcfg.Config, error)
	Save(ctx context.Context, cfg panelcfg.Config) error
}

// Manager checks and rotates the panel password. It holds no copy of the
// hash: each call reads the store so an out-of-band change takes effect on
// the next request.
type Manager struct {
	store ConfigStore
}

func NewManager(store ConfigStore) *Manager {
	return &Manager{store: store}
}

// Login verifies password against the hash currently on disk.
func (m *Manager) Login(password string) error {
	cfg, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	if password == "" || !hash.VerifyPassword(cfg.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	return nil
}

// ChangePassword replaces the stored hash after verifying current. The port
// and any other persisted fields are carried over from the fresh read.
func (m *Manager) ChangePassword(ctx context.Context, current, next, confirm string) error {
	cfg, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	if current == "" || !hash.VerifyPassword(cfg.PasswordHash, current) {
		return ErrInvalidCurrent
	}
	if err := ValidateNewPassword(next, confirm); err != nil {
		return err
	}
	h, err := hash.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	cfg.PasswordHash = h
	if err := m.store.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// ValidateNewPassword applies the change-time policy.
func ValidateNewPassword(next, confirm string) error {
	switch {
	case next == "":
		return ErrPasswordEmpty
	case len([]rune(next)) < MinPasswordLen:
		return ErrPasswordTooShort
	case next != confirm:
		return ErrPasswordMismatch
	}
	return nil
}
