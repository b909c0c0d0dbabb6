package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router wires every route. Anything not in the protected group below is
// reachable without a session.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(accessLog(s.logger, s.metrics))
	r.Use(securityHeaders)

	// Public
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)
	r.Handle("/static/*", staticHandler())

	// Protected
	r.Group(func(pr chi.Router) {
		pr.Use(s.requireSession)
		pr.Use(s.requireCSRF)

		pr.Get("/", s.handleIndex)
		pr.Get("/dashboard", s.handleDashboard)
		pr.Get("/cpu", s.handleCPU)
		pr.Get("/memory", s.handleMemory)
		pr.Get("/disk", s.handleDisk)
		pr.Get("/network", s.handleNetwork)
		pr.Get("/processes", s.handleProcesses)
		pr.Get("/system_logs", s.handleSystemLogs)
		pr.Get("/console", s.handleConsole)
		pr.Get("/server_actions", s.handleServerActions)
		pr.Get("/password", s.handlePasswordPage)
		pr.Post("/password", s.handleChangePassword)
		pr.Post("/actions/reboot", s.handleReboot)
		pr.Post("/actions/stop", s.handleShutdown)
		if s.cfg.MetricsEnabled && s.metrics != nil {
			pr.Method(http.MethodGet, "/metrics", s.metrics.Handler())
		}
	})

	r.NotFound(s.handleNotFound)
	return r
}
