package sessions

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestRevocationsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revoked.json")
	s := New(path)
	exp := time.Now().Add(30 * time.Minute)
	if err := s.Add(context.TODO(), "sid1", exp); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !s.Contains("sid1") {
		t.Fatalf("expected sid1 revoked")
	}
	// reload from disk
	s2 := New(path)
	if !s2.Contains("sid1") {
		t.Fatalf("revocation not persisted")
	}
	if s2.Contains("sid2") {
		t.Fatalf("unexpected revocation")
	}
}

func TestPruneDropsExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revoked.json")
	s := New(path)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = s.Add(context.TODO(), "old", now.Add(-time.Second))
	_ = s.Add(context.TODO(), "edge", now)
	_ = s.Add(context.TODO(), "live", now.Add(time.Minute))
	n, err := s.Prune(context.TODO(), now)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 || s.Len() != 1 || !s.Contains("live") {
		t.Fatalf("prune removed %d, left %d", n, s.Len())
	}
	if New(path).Len() != 1 {
		t.Fatalf("pruned list not persisted")
	}
	if n, _ := s.Prune(context.TODO(), now); n != 0 {
		t.Fatalf("second prune removed %d", n)
	}
}

func TestLoadOrCreateKeysPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session_keys.json")
	k1, err := LoadOrCreateKeys(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(k1.Hash) != 64 || len(k1.Block) != 32 {
		t.Fatalf("key sizes: %d %d", len(k1.Hash), len(k1.Block))
	}
	k2, err := LoadOrCreateKeys(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if string(k1.Hash) != string(k2.Hash) || string(k1.Block) != string(k2.Block) {
		t.Fatalf("keys regenerated on reload")
	}
}

func TestConcurrentRevocationsAllPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revoked.json")
	s := New(path)
	exp := time.Now().Add(time.Hour)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Add(context.TODO(), fmt.Sprintf("sid-%d", i), exp); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("add: %v", err)
	}

	reopened := New(path)
	if reopened.Len() != n {
		t.Fatalf("persisted %d of %d revocations", reopened.Len(), n)
	}
}
