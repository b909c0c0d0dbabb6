// Package sessions issues and verifies the signed session cookie and keeps
// the server-side list of logged-out session ids.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const (
	CookieName = "voidpanel_session"
	// TTL is an absolute lifetime counted from login; activity never extends it.
	TTL = time.Hour
)

var ErrNoSession = errors.New("no session")

// Session is the payload carried in the cookie.
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExpiresAt is the instant the session stops being valid.
func (s Session) ExpiresAt() time.Time { return s.CreatedAt.Add(TTL) }

type Options struct {
	// Secure sets the Secure attribute; enable behind TLS.
	Secure bool
	// Now overrides the clock in tests.
	Now func() time.Time
}

type Authority struct {
	codec   *securecookie.SecureCookie
	revoked *Store
	secure  bool
	now     func() time.Time
}

func NewAuthority(keys Keys, revoked *Store, opts Options) *Authority {
	sc := securecookie.New(keys.Hash, keys.Block)
	sc.SetSerializer(securecookie.JSONEncoder{})
	// expiry is enforced from created_at below
	sc.MaxAge(0)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Authority{codec: sc, revoked: revoked, secure: opts.Secure, now: now}
}

// Issue starts a new authenticated session and sets its cookie.
func (a *Authority) Issue(w http.ResponseWriter) (Session, error) {
	s := Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		CreatedAt:     a.now().UTC(),
	}
	val, err := a.codec.Encode(CookieName, s)
	if err != nil {
		return Session{}, fmt.Errorf("encode session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt(),
	})
	return s, nil
}

// FromRequest returns the session carried by r if it decodes, is
// authenticated, is younger than TTL and has not been revoked.
func (a *Authority) FromRequest(r *http.Request) (Session, bool) {
	s, err := a.decode(r)
	if err != nil {
		return Session{}, false
	}
	if !a.Valid(s) {
		return Session{}, false
	}
	return s, true
}

// Valid applies the lifetime and revocation rules to a decoded session.
func (a *Authority) Valid(s Session) bool {
	if !s.Authenticated || s.ID == "" || s.CreatedAt.IsZero() {
		return false
	}
	age := a.now().Sub(s.CreatedAt)
	if age < -time.Minute || age >= TTL {
		return false
	}
	if a.revoked != nil && a.revoked.Contains(s.ID) {
		return false
	}
	return true
}

// Revoke ends the session carried by r, if any, and clears the cookie. The
// cookie is cleared even when recording the revocation fails.
func (a *Authority) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	a.clear(w)
	s, err := a.decode(r)
	if err != nil {
		return nil
	}
	if a.revoked == nil || s.ID == "" || !a.now().Before(s.ExpiresAt()) {
		return nil
	}
	return a.revoked.Add(ctx, s.ID, s.ExpiresAt())
}

func (a *Authority) decode(r *http.Request) (Session, error) {
	ck, err := r.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return Session{}, ErrNoSession
	}
	var s Session
	if err := a.codec.Decode(CookieName, ck.Value, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (a *Authority) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

type ctxKey struct{}

// WithSession stores s on ctx for downstream handlers.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session placed by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
