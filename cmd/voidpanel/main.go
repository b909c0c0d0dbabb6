package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"voidpanel/internal/audit"
	"voidpanel/internal/auth"
	"voidpanel/internal/config"
	"voidpanel/internal/housekeeping"
	"voidpanel/internal/notify"
	"voidpanel/internal/panelcfg"
	"voidpanel/internal/ratelimit"
	"voidpanel/internal/server"
	"voidpanel/internal/sessions"
	"voidpanel/pkg/monitor"
	"voidpanel/pkg/power"
	"voidpanel/pkg/shell"
)

func main() {
	cfg := config.FromEnv()
	logger := server.Logger(cfg)

	store := panelcfg.New(cfg.ConfigPath)
	pc, err := store.Load()
	if err != nil {
		if errors.Is(err, panelcfg.ErrMissing) || errors.Is(err, panelcfg.ErrInvalid) {
			logger.Fatal().Err(err).Str("path", store.Path()).Msg("panel not configured; run voidpanel-setup first")
		}
		logger.Fatal().Err(err).Msg("load panel config")
	}
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.StateDir).Msg("create state dir")
	}

	keys, err := sessions.LoadOrCreateKeys(cfg.StatePath("session_keys.json"))
	if err != nil {
		logger.Fatal().Err(err).Msg("session keys")
	}
	revoked := sessions.New(cfg.StatePath("revoked.json"))
	limiter := ratelimit.New(cfg.StatePath("ratelimit.json"))

	events, err := audit.Open(*logger, cfg.StatePath("audit.db"))
	if err != nil {
		logger.Fatal().Err(err).Msg("open audit log")
	}
	defer events.Close()

	metrics := server.NewMetrics()
	srv, err := server.New(cfg, server.Deps{
		Credentials: auth.NewManager(store),
		Sessions:    sessions.NewAuthority(keys, revoked, sessions.Options{Secure: cfg.SecureCookies}),
		Keys:        keys,
		Limiter:     limiter,
		Collector:   monitor.NewCollector(*logger, monitor.NewSystem(shell.Exec{}), monitor.WithLogPath(cfg.SyslogPath)),
		Power:       power.New(),
		Audit:       events,
		Notifier:    notify.New(*logger, cfg.NotifyURLs, nil),
		Metrics:     metrics,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build server")
	}

	hk := housekeeping.New(*logger, "",
		housekeeping.Task{Name: "revocations", Run: func(ctx context.Context) (int64, error) {
			n, err := revoked.Prune(ctx, time.Now())
			return int64(n), err
		}},
		housekeeping.Task{Name: "ratelimit", Run: func(ctx context.Context) (int64, error) {
			n, err := limiter.Prune(ctx, server.LoginWindow)
			return int64(n), err
		}},
		housekeeping.Task{Name: "audit", Run: func(ctx context.Context) (int64, error) {
			return events.Prune(ctx, time.Now().Add(-audit.DefaultRetention))
		}},
	)
	if err := hk.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start housekeeping")
	}
	defer hk.Stop()

	port := pc.Port
	if cfg.PortOverride > 0 {
		port = cfg.PortOverride
	}
	addr := net.JoinHostPort(cfg.BindHost, strconv.Itoa(port))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info().Msgf("voidpanel listening on http://%s", addr)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server exited")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			logger.Warn().Err(err).Msg("graceful shutdown")
		}
	}
	if err := limiter.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, "flush rate limit state:", err)
	}
}
