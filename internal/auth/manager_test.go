package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"voidpanel/internal/auth/hash"
	"voidpanel/internal/panelcfg"
)

func newStore(t *testing.T, password string, port int) *panelcfg.Store {
	t.Helper()
	s := panelcfg.New(filepath.Join(t.TempDir(), "config.json"))
	h, err := hash.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.TODO(), panelcfg.Config{PasswordHash: h, Port: port}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLogin(t *testing.T) {
	m := NewManager(newStore(t, "open-sesame", 417))
	if err := m.Login("open-sesame"); err != nil {
		t.Fatalf("correct password: %v", err)
	}
	if err := m.Login("open-sesam"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if err := m.Login(""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty password: want ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginNotConfigured(t *testing.T) {
	m := NewManager(panelcfg.New(filepath.Join(t.TempDir(), "missing.json")))
	if err := m.Login("anything"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestLoginReadsDiskEveryTime(t *testing.T) {
	s := newStore(t, "first-password", 417)
	m := NewManager(s)
	if err := m.Login("first-password"); err != nil {
		t.Fatal(err)
	}
	h, _ := hash.HashPassword("rotated-elsewhere")
	if err := s.Save(context.TODO(), panelcfg.Config{PasswordHash: h, Port: 417}); err != nil {
		t.Fatal(err)
	}
	if err := m.Login("first-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("stale hash accepted: %v", err)
	}
	if err := m.Login("rotated-elsewhere"); err != nil {
		t.Fatalf("new hash rejected: %v", err)
	}
}

func TestChangePasswordRejections(t *testing.T) {
	cases := []struct {
		name                   string
		current, next, confirm string
		want                   error
	}{
		{"wrong current", "nope", "long-enough-1", "long-enough-1", ErrInvalidCurrent},
		{"empty current", "", "long-enough-1", "long-enough-1", ErrInvalidCurrent},
		{"empty new", "old-password", "", "", ErrPasswordEmpty},
		{"seven chars", "old-password", "1234567", "1234567", ErrPasswordTooShort},
		{"mismatch", "old-password", "long-enough-1", "long-enough-2", ErrPasswordMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t, "old-password", 9000)
			before, err := s.Load()
			if err != nil {
				t.Fatal(err)
			}
			m := NewManager(s)
			if err := m.ChangePassword(context.TODO(), tc.current, tc.next, tc.confirm); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			after, err := s.Load()
			if err != nil {
				t.Fatal(err)
			}
			if after != before {
				t.Fatalf("stored config changed on rejection")
			}
		})
	}
}

func TestChangePasswordSuccess(t *testing.T) {
	s := newStore(t, "old-password", 9000)
	m := NewManager(s)
	if err := m.ChangePassword(context.TODO(), "old-password", "12345678", "12345678"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if err := m.Login("old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if err := m.Login("12345678"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	cfg, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("port not preserved: %d", cfg.Port)
	}
}

func TestValidateNewPassword(t *testing.T) {
	if err := ValidateNewPassword("abcdefgh", "abcdefgh"); err != nil {
		t.Fatalf("8 chars should pass: %v", err)
	}
	if err := ValidateNewPassword("abcdefg", "abcdefg"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("7 chars: %v", err)
	}
}
