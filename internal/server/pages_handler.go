package server

import (
	"net"
	"net/http"
	"path/filepath"
	"strings"

	"voidpanel/internal/audit"
	"voidpanel/internal/sessions"
	"voidpanel/pkg/monitor"
)

// renderPage renders an authenticated page with pending flashes and a CSRF
// token for forms and scripts.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, page, title, active string, data any) {
	pd := pageData{
		Title:         title,
		Active:        active,
		Authenticated: true,
		CSRF:          s.csrfToken(w, r),
		Flashes:       s.flash.pop(w, r),
		Data:          data,
	}
	if err := s.views.render(w, http.StatusOK, page, pd); err != nil {
		s.logger.Error().Err(err).Str("page", page).Msg("render")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, sessions.DefaultLanding, http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "dashboard", "Dashboard", "/dashboard", s.collector.Snapshot(r.Context()))
}

func (s *Server) handleCPU(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "cpu", "CPU", "/cpu", s.collector.CPU(r.Context()))
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "memory", "Memory", "/memory", s.collector.Memory(r.Context()))
}

func (s *Server) handleDisk(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "disk", "Disk", "/disk", s.collector.Disks(r.Context()))
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "network", "Network", "/network", s.collector.Network(r.Context()))
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "processes", "Processes", "/processes", s.collector.Processes(r.Context()))
}

type logsView struct {
	Name string
	Tail monitor.LogTail
}

func (s *Server) handleSystemLogs(w http.ResponseWriter, r *http.Request) {
	tail := s.collector.Logs(r.Context())
	v := logsView{Name: "Log (" + filepath.Base(tail.Path) + ")", Tail: tail}
	s.renderPage(w, r, "system_logs", "System logs", "/system_logs", v)
}

type consoleView struct {
	User string
	Host string
}

func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "console", "Console", "/console", consoleView{User: "root", Host: s.consoleHost(r)})
}

// consoleHost is the host the browser used to reach the panel, without port.
func (s *Server) consoleHost(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host != "" {
		return host
	}
	return s.outboundIP()
}

type actionsView struct {
	Events []audit.Event
	Error  string
}

func (s *Server) handleServerActions(w http.ResponseWriter, r *http.Request) {
	var v actionsView
	if s.audit != nil {
		ev, err := s.audit.Recent(r.Context(), auditLimit)
		if err != nil {
			s.logger.Warn().Err(err).Msg("load audit events")
			v.Error = "Could not load recent activity."
		}
		v.Events = ev
	}
	s.renderPage(w, r, "server_actions", "Server actions", "/server_actions", v)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	_, authed := s.sessions.FromRequest(r)
	pd := pageData{Title: "Not found", Authenticated: authed}
	if authed {
		pd.CSRF = s.csrfToken(w, r)
	}
	if err := s.views.render(w, http.StatusNotFound, "404", pd); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
	}
}
