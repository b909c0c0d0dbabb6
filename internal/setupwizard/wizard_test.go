package setupwizard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"voidpanel/internal/auth/hash"
	"voidpanel/internal/panelcfg"
)

// script answers prompts in order.
type script struct {
	confirms  []bool
	passwords []string
	inputs    []string
	asked     []string
}

func (s *script) Confirm(msg string, _ bool) (bool, error) {
	s.asked = append(s.asked, msg)
	if len(s.confirms) == 0 {
		return false, errors.New("unexpected confirm")
	}
	v := s.confirms[0]
	s.confirms = s.confirms[1:]
	return v, nil
}

func (s *script) Password(msg string) (string, error) {
	s.asked = append(s.asked, msg)
	if len(s.passwords) == 0 {
		return "", errors.New("unexpected password prompt")
	}
	v := s.passwords[0]
	s.passwords = s.passwords[1:]
	return v, nil
}

func (s *script) Input(msg, _ string) (string, error) {
	s.asked = append(s.asked, msg)
	if len(s.inputs) == 0 {
		return "", errors.New("unexpected input prompt")
	}
	v := s.inputs[0]
	s.inputs = s.inputs[1:]
	return v, nil
}

func newStore(t *testing.T) *panelcfg.Store {
	t.Helper()
	return panelcfg.New(filepath.Join(t.TempDir(), "config.json"))
}

func TestInteractiveSetup(t *testing.T) {
	store := newStore(t)
	p := &script{passwords: []string{"", "s3cret", "s3cret"}, inputs: []string{"8080"}}
	var out bytes.Buffer
	cfg, err := New(store, p, &out, io.Discard, Options{}).Run(context.TODO())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port=%d", cfg.Port)
	}
	if !strings.Contains(out.String(), "Password cannot be empty.") {
		t.Fatal("empty password not reported")
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !hash.VerifyPassword(got.PasswordHash, "s3cret") || got.Port != 8080 {
		t.Fatalf("stored config wrong: %+v", got)
	}
}

func TestInvalidPortFallsBack(t *testing.T) {
	for _, in := range []string{"abc", "0", "70000", "-1"} {
		store := newStore(t)
		p := &script{passwords: []string{"pw", "pw"}, inputs: []string{in}}
		var out bytes.Buffer
		cfg, err := New(store, p, &out, io.Discard, Options{}).Run(context.TODO())
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if cfg.Port != panelcfg.DefaultPort {
			t.Errorf("%q: port=%d", in, cfg.Port)
		}
		if !strings.Contains(out.String(), "Invalid port number. Using default port: 417") {
			t.Errorf("%q: no warning", in)
		}
	}
}

func TestDefaultPort(t *testing.T) {
	store := newStore(t)
	p := &script{passwords: []string{"pw", "pw"}, inputs: []string{""}}
	cfg, err := New(store, p, io.Discard, io.Discard, Options{}).Run(context.TODO())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 417 {
		t.Fatalf("port=%d", cfg.Port)
	}
}

func TestOverwriteDeclined(t *testing.T) {
	store := newStore(t)
	h, _ := hash.HashPassword("original")
	if err := store.Save(context.TODO(), panelcfg.Config{PasswordHash: h, Port: 9000}); err != nil {
		t.Fatal(err)
	}
	p := &script{confirms: []bool{false}}
	var out bytes.Buffer
	_, err := New(store, p, &out, io.Discard, Options{}).Run(context.TODO())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("want ErrAborted, got %v", err)
	}
	got, _ := store.Load()
	if !hash.VerifyPassword(got.PasswordHash, "original") || got.Port != 9000 {
		t.Fatal("existing config modified")
	}
	if !strings.Contains(out.String(), "Setup aborted.") {
		t.Fatal("abort not reported")
	}
}

func TestOverwriteConfirmed(t *testing.T) {
	store := newStore(t)
	h, _ := hash.HashPassword("original")
	_ = store.Save(context.TODO(), panelcfg.Config{PasswordHash: h, Port: 9000})
	p := &script{confirms: []bool{true}, passwords: []string{"replacement", "replacement"}, inputs: []string{""}}
	if _, err := New(store, p, io.Discard, io.Discard, Options{}).Run(context.TODO()); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Load()
	if !hash.VerifyPassword(got.PasswordHash, "replacement") {
		t.Fatal("config not replaced")
	}
}

func TestPasswordFromStdin(t *testing.T) {
	store := newStore(t)
	opts := Options{PasswordFrom: strings.NewReader("piped-pass\r\n"), Port: "8443"}
	var transcript bytes.Buffer
	cfg, err := New(store, nil, io.Discard, &transcript, opts).Run(context.TODO())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8443 || !hash.VerifyPassword(cfg.PasswordHash, "piped-pass") {
		t.Fatalf("cfg=%+v", cfg)
	}
	if !strings.Contains(transcript.String(), "Configuration saved, port 8443") {
		t.Fatalf("transcript=%q", transcript.String())
	}
}

func TestNonInteractiveRefusesOverwrite(t *testing.T) {
	store := newStore(t)
	h, _ := hash.HashPassword("original")
	_ = store.Save(context.TODO(), panelcfg.Config{PasswordHash: h, Port: 417})

	opts := Options{PasswordFrom: strings.NewReader("new\n")}
	if _, err := New(store, nil, io.Discard, io.Discard, opts).Run(context.TODO()); !errors.Is(err, ErrExists) {
		t.Fatalf("want ErrExists, got %v", err)
	}
	opts = Options{PasswordFrom: strings.NewReader("new\n"), Force: true}
	if _, err := New(store, nil, io.Discard, io.Discard, opts).Run(context.TODO()); err != nil {
		t.Fatal(err)
	}
}

func TestReadPassword(t *testing.T) {
	if _, err := ReadPassword(strings.NewReader("\n")); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("want ErrEmptyPassword, got %v", err)
	}
	pw, err := ReadPassword(strings.NewReader("no-newline"))
	if err != nil || pw != "no-newline" {
		t.Fatalf("pw=%q err=%v", pw, err)
	}
}

func TestParsePort(t *testing.T) {
	cases := []struct {
		in   string
		port int
		ok   bool
	}{
		{"", 417, true},
		{" 8080 ", 8080, true},
		{"65535", 65535, true},
		{"65536", 417, false},
		{"http", 417, false},
	}
	for _, c := range cases {
		port, ok := ParsePort(c.in)
		if port != c.port || ok != c.ok {
			t.Errorf("ParsePort(%q)=%d,%v want %d,%v", c.in, port, ok, c.port, c.ok)
		}
	}
}
