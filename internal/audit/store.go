// Package audit keeps a sqlite trail of security-relevant panel events.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Kind names an audited event.
type Kind string

const (
	KindLogin           Kind = "login"
	KindLoginFailed     Kind = "login_failed"
	KindLoginThrottled  Kind = "login_throttled"
	KindLogout          Kind = "logout"
	KindPasswordChanged Kind = "password_changed"
	KindPasswordFailed  Kind = "password_change_failed"
	KindReboot          Kind = "reboot"
	KindShutdown        Kind = "shutdown"
)

// DefaultRetention is how long events are kept by Prune callers.
const DefaultRetention = 90 * 24 * time.Hour

type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       Kind      `json:"kind"`
	RemoteAddr string    `json:"remote_addr"`
	Success    bool      `json:"success"`
	Detail     string    `json:"detail,omitempty"`
}

type Store struct {
	logger zerolog.Logger
	db     *sql.DB
	now    func() time.Time
}

// Open creates or opens the database at path.
func Open(logger zerolog.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create audit dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; WAL lets page renders read concurrently
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		logger: logger.With().Str("component", "audit").Logger(),
		db:     db,
		now:    time.Now,
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			ts INTEGER NOT NULL,
			kind TEXT NOT NULL,
			remote_addr TEXT NOT NULL DEFAULT '',
			success INTEGER NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		)`,
		"CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts)",
	}
	for _, schema := range schemas {
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Record stores e, filling ID and Timestamp when unset. Failures are also
// logged so a broken database never hides an event completely.
func (s *Store) Record(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	ev := s.logger.Info()
	if !e.Success {
		ev = s.logger.Warn()
	}
	ev.Str("kind", string(e.Kind)).Str("remote", e.RemoteAddr).Bool("success", e.Success).Str("detail", e.Detail).Msg("audit")

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, ts, kind, remote_addr, success, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().UnixMilli(), string(e.Kind), e.RemoteAddr, e.Success, e.Detail)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(e.Kind)).Msg("failed to persist audit event")
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, kind, remote_addr, success, detail FROM events ORDER BY ts DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var (
			e    Event
			ts   int64
			kind string
		)
		if err := rows.Scan(&e.ID, &ts, &kind, &e.RemoteAddr, &e.Success, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Kind = Kind(kind)
		e.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes events older than cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE ts < ?`, cutoff.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
