package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(zerolog.Nop(), filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, Kind: KindLogin, RemoteAddr: "192.0.2.1", Success: true},
		{Timestamp: base.Add(time.Minute), Kind: KindReboot, RemoteAddr: "192.0.2.1", Success: false, Detail: "Reboot failed: denied"},
		{Timestamp: base.Add(2 * time.Minute), Kind: KindLogout, RemoteAddr: "192.0.2.1", Success: true},
	}
	for _, e := range events {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Kind != KindLogout || got[1].Kind != KindReboot {
		t.Fatalf("recent: %+v", got)
	}
	if got[1].Success || got[1].Detail != "Reboot failed: denied" || got[1].ID == "" {
		t.Fatalf("fields: %+v", got[1])
	}
	if !got[1].Timestamp.Equal(base.Add(time.Minute)) {
		t.Fatalf("timestamp %v", got[1].Timestamp)
	}
}

func TestPrune(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now()
	_ = s.Record(ctx, Event{Timestamp: now.Add(-100 * 24 * time.Hour), Kind: KindLogin, Success: true})
	_ = s.Record(ctx, Event{Timestamp: now, Kind: KindLogin, Success: true})
	n, err := s.Prune(ctx, now.Add(-DefaultRetention))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("pruned %d", n)
	}
	got, _ := s.Recent(ctx, 10)
	if len(got) != 1 {
		t.Fatalf("left %d", len(got))
	}
}

func TestReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := Open(zerolog.Nop(), path)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Record(context.Background(), Event{Kind: KindShutdown, Success: true})
	_ = s.Close()
	s2, err := Open(zerolog.Nop(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	got, _ := s2.Recent(context.Background(), 0)
	if len(got) != 1 || got[0].Kind != KindShutdown {
		t.Fatalf("got %+v", got)
	}
}
