package sessions

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"voidpanel/internal/fsatomic"
)

// Revocation marks a session id as logged out until the session would have
// expired on its own.
type Revocation struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type diskFile struct {
	Version     int          `json:"version"`
	Revocations []Revocation `json:"revocations"`
}

// Store is the persisted revocation list.
type Store struct {
	path string
	mu   sync.RWMutex
	mem  map[string]time.Time // id -> natural expiry

	// saveMu orders writers so the last file written holds the newest list.
	saveMu sync.Mutex
}

func New(path string) *Store {
	s := &Store{path: path, mem: map[string]time.Time{}}
	_ = s.load()
	return s
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var f diskFile
	ok, err := fsatomic.LoadJSON(s.path, &f)
	if err != nil || !ok {
		return err
	}
	s.mem = map[string]time.Time{}
	for _, it := range f.Revocations {
		if it.ID != "" {
			s.mem[it.ID] = it.ExpiresAt
		}
	}
	return nil
}

// Add records id as revoked and persists the list.
func (s *Store) Add(ctx context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	s.mem[id] = expiresAt.UTC()
	s.mu.Unlock()
	return s.persist(ctx)
}

// Contains reports whether id has been revoked.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.mem[id]
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mem)
}

// Prune drops entries whose session has expired anyway and returns how many
// were removed. The file is only rewritten when something changed.
func (s *Store) Prune(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	n := 0
	for id, exp := range s.mem {
		if !now.Before(exp) {
			delete(s.mem, id)
			n++
		}
	}
	s.mu.Unlock()
	if n == 0 {
		return 0, nil
	}
	return n, s.persist(ctx)
}

func (s *Store) listLocked() []Revocation {
	list := make([]Revocation, 0, len(s.mem))
	for id, exp := range s.mem {
		list = append(list, Revocation{ID: id, ExpiresAt: exp})
	}
	return list
}

// persist snapshots the list after taking saveMu, so a writer that waited
// includes every change made before it.
func (s *Store) persist(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	list := s.listLocked()
	s.mu.RUnlock()
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	return fsatomic.WithLock(s.path, func() error {
		return fsatomic.SaveJSON(ctx, s.path, diskFile{Version: 1, Revocations: list}, fs.FileMode(0o600))
	})
}
