package ratelimit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func TestLoginWindow(t *testing.T) {
	c := &clock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	s := New(filepath.Join(t.TempDir(), "ratelimit.json"))
	s.SetClock(c.Now)
	key := "login:192.0.2.7"
	for i := 0; i < 10; i++ {
		ok, remaining, _ := s.Allow(key, 10, 15*time.Minute)
		if !ok || remaining != 9-i {
			t.Fatalf("attempt %d: ok=%v remaining=%d", i+1, ok, remaining)
		}
	}
	ok, _, reset := s.Allow(key, 10, 15*time.Minute)
	if ok {
		t.Fatal("11th attempt should be limited")
	}
	if !reset.Equal(c.t.Add(15 * time.Minute)) {
		t.Fatalf("reset at %v", reset)
	}
	// other clients are unaffected
	if ok, _, _ := s.Allow("login:192.0.2.8", 10, 15*time.Minute); !ok {
		t.Fatal("independent key limited")
	}
	c.t = c.t.Add(15 * time.Minute)
	if ok, _, _ := s.Allow(key, 10, 15*time.Minute); !ok {
		t.Fatal("expected allow after window reset")
	}
}

func TestResetClearsBucket(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ratelimit.json"))
	key := "login:198.51.100.1"
	s.Allow(key, 1, time.Minute)
	if ok, _, _ := s.Allow(key, 1, time.Minute); ok {
		t.Fatal("should be limited")
	}
	s.Reset(key)
	if ok, _, _ := s.Allow(key, 1, time.Minute); !ok {
		t.Fatal("reset did not clear bucket")
	}
}

func TestStorePersistenceFixedWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ratelimit.json")
	c := &clock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	s := New(path)
	s.SetClock(c.Now)
	key := "login:203.0.113.9"
	if ok, _, _ := s.Allow(key, 1, time.Minute); !ok {
		t.Fatal("first allow should pass")
	}
	if ok, _, _ := s.Allow(key, 1, time.Minute); ok {
		t.Fatal("second allow should be limited")
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	// simulate restart by reloading store
	s2 := New(path)
	s2.SetClock(c.Now)
	if ok, _, _ := s2.Allow(key, 1, time.Minute); ok {
		t.Fatal("expected persisted limit to remain after restart")
	}
}

func TestPrune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratelimit.json")
	c := &clock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	s := New(path)
	s.SetClock(c.Now)
	s.Allow("a", 5, 15*time.Minute)
	c.t = c.t.Add(10 * time.Minute)
	s.Allow("b", 5, 15*time.Minute)
	c.t = c.t.Add(6 * time.Minute)
	n, err := s.Prune(context.TODO(), 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || s.Len() != 1 {
		t.Fatalf("pruned %d, left %d", n, s.Len())
	}
	if New(path).Len() != 1 {
		t.Fatal("prune not persisted")
	}
}
