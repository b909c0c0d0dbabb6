// Package ratelimit is a fixed-window attempt counter persisted to disk so a
// restart does not reset an attacker's budget.
package ratelimit

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"voidpanel/internal/fsatomic"
)

// State is the on-disk document.
type State struct {
	Version int               `json:"version"`
	Buckets map[string]Bucket `json:"buckets"`
}

type Bucket struct {
	Hits  int       `json:"hits"`
	Start time.Time `json:"window_start"`
}

type Store struct {
	path        string
	now         func() time.Time
	mu          sync.Mutex
	st          State
	lastPersist time.Time
	ops         int
}

func New(path string) *Store {
	s := &Store{path: path, now: time.Now, st: State{Version: 1, Buckets: map[string]Bucket{}}}
	_ = s.load()
	return s
}

// SetClock replaces the time source; tests only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st State
	ok, err := fsatomic.LoadJSON(s.path, &st)
	if err != nil || !ok {
		return err
	}
	s.st = st
	if s.st.Buckets == nil {
		s.st.Buckets = map[string]Bucket{}
	}
	s.lastPersist = s.now()
	return nil
}

// Allow counts one attempt for key against limit per window. It returns
// whether the attempt may proceed, how many remain and when the window resets.
func (s *Store) Allow(key string, limit int, window time.Duration) (bool, int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	b := s.st.Buckets[key]
	if b.Start.IsZero() || now.Sub(b.Start) >= window || now.Before(b.Start) {
		b = Bucket{Start: now}
	}
	resetAt := b.Start.Add(window)
	if b.Hits >= limit {
		s.maybePersistLocked()
		return false, 0, resetAt
	}
	b.Hits++
	s.st.Buckets[key] = b
	s.maybePersistLocked()
	remaining := limit - b.Hits
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining, resetAt
}

// Reset forgets key, used after a successful login.
func (s *Store) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.Buckets[key]; !ok {
		return
	}
	delete(s.st.Buckets, key)
	s.maybePersistLocked()
}

// Prune drops buckets whose window has passed and persists the result.
func (s *Store) Prune(ctx context.Context, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	n := 0
	for k, b := range s.st.Buckets {
		if now.Sub(b.Start) >= window {
			delete(s.st.Buckets, k)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.persistLocked(ctx)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.Buckets)
}

// Flush forces a persist to disk.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(context.TODO())
}

func (s *Store) persistLocked(ctx context.Context) error {
	st := State{Version: 1, Buckets: make(map[string]Bucket, len(s.st.Buckets))}
	for k, v := range s.st.Buckets {
		st.Buckets[k] = v
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	if err := fsatomic.WithLock(s.path, func() error {
		return fsatomic.SaveJSON(ctx, s.path, st, fs.FileMode(0o600))
	}); err != nil {
		return err
	}
	s.lastPersist = s.now()
	s.ops = 0
	return nil
}

// maybePersistLocked persists every ~2s or every 10 ops to reduce IO.
func (s *Store) maybePersistLocked() {
	s.ops++
	if s.ops%10 == 0 || s.now().Sub(s.lastPersist) >= 2*time.Second {
		_ = s.persistLocked(context.TODO())
	}
}
