package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"voidpanel/internal/audit"
	"voidpanel/internal/auth"
	"voidpanel/internal/config"
	"voidpanel/internal/notify"
	"voidpanel/internal/ratelimit"
	"voidpanel/internal/sessions"
	"voidpanel/pkg/monitor"
	"voidpanel/pkg/power"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoginWindow is the fixed window for the per-IP login limit.
const LoginWindow = 15 * time.Minute

// auditLimit is how many events the server actions page lists.
const auditLimit = 25

func Logger(cfg config.Config) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.Logger.Level(cfg.LogLevel).With().Timestamp().Logger()
	return &logger
}

// PowerController runs the privileged host actions.
type PowerController interface {
	Reboot(ctx context.Context) power.Result
	Shutdown(ctx context.Context) power.Result
}

// AuditLog records and lists security events.
type AuditLog interface {
	Record(ctx context.Context, e audit.Event) error
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Deps are the collaborators the HTTP layer drives. Audit, Notifier and
// Metrics may be nil.
type Deps struct {
	Credentials *auth.Manager
	Sessions    *sessions.Authority
	Keys        sessions.Keys
	Limiter     *ratelimit.Store
	Collector   *monitor.Collector
	Power       PowerController
	Audit       AuditLog
	Notifier    *notify.Notifier
	Metrics     *Metrics
	// Now overrides the clock in tests.
	Now func() time.Time
	// OutboundIP discovers the host address for the console hint when the
	// request carries none.
	OutboundIP func() string
}

type Server struct {
	cfg    config.Config
	logger *zerolog.Logger

	creds      *auth.Manager
	sessions   *sessions.Authority
	limiter    *ratelimit.Store
	collector  *monitor.Collector
	power      PowerController
	audit      AuditLog
	notifier   *notify.Notifier
	metrics    *Metrics
	flash      *flasher
	views      *views
	now        func() time.Time
	outboundIP func() string
}

func New(cfg config.Config, d Deps) (*Server, error) {
	if d.Credentials == nil || d.Sessions == nil || d.Collector == nil || d.Power == nil {
		return nil, errors.New("server: credentials, sessions, collector and power are required")
	}
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:        cfg,
		logger:     Logger(cfg),
		creds:      d.Credentials,
		sessions:   d.Sessions,
		limiter:    d.Limiter,
		collector:  d.Collector,
		power:      d.Power,
		audit:      d.Audit,
		notifier:   d.Notifier,
		metrics:    d.Metrics,
		flash:      newFlasher(d.Keys.Hash, d.Keys.Block, cfg.SecureCookies),
		views:      v,
		now:        d.Now,
		outboundIP: d.OutboundIP,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.outboundIP == nil {
		s.outboundIP = outboundIP
	}
	return s, nil
}

func (s *Server) record(r *http.Request, kind audit.Kind, ok bool, detail string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(r.Context(), audit.Event{
		Timestamp:  s.now(),
		Kind:       kind,
		RemoteAddr: clientIP(r),
		Success:    ok,
		Detail:     detail,
	})
}

// clientIP is the host part of RemoteAddr, which RealIP has already
// rewritten when proxy headers are trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// outboundIP finds the local address used for outbound traffic. No packet
// is sent: connecting a UDP socket only selects a route.
func outboundIP() string {
	conn, err := net.DialTimeout("udp", "8.8.8.8:80", 100*time.Millisecond)
	if err != nil {
		return "your_server_ip"
	}
	defer conn.Close()
	if a, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return a.IP.String()
	}
	return "your_server_ip"
}
