package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"voidpanel/internal/audit"
	"voidpanel/internal/auth"
	"voidpanel/internal/panelcfg"
	"voidpanel/internal/sessions"
	"voidpanel/pkg/monitor"
)

type loginView struct {
	Summary monitor.LoginSummary
	Next    string
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, extra ...Flash) {
	flashes := append(s.flash.pop(w, r), extra...)
	data := pageData{
		Title:   "Login",
		Flashes: flashes,
		Data: loginView{
			Summary: s.collector.LoginSummary(r.Context()),
			Next:    r.FormValue("next"),
		},
	}
	if err := s.views.render(w, status, "login", data); err != nil {
		s.logger.Error().Err(err).Msg("render login")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.FromRequest(r); ok {
		http.Redirect(w, r, sessions.SafeNext(r.URL.Query().Get("next"), r.Host), http.StatusSeeOther)
		return
	}
	s.renderLogin(w, r, http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.FromRequest(r); ok {
		http.Redirect(w, r, sessions.DefaultLanding, http.StatusSeeOther)
		return
	}
	ip := clientIP(r)
	key := "login:" + ip
	if s.limiter != nil {
		if ok, _, reset := s.limiter.Allow(key, s.cfg.RateLoginPer15m, LoginWindow); !ok {
			left := reset.Sub(s.now())
			wait := int(math.Ceil(left.Minutes()))
			if wait < 1 {
				wait = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(left.Seconds()))))
			s.metrics.incLogin("throttled")
			s.record(r, audit.KindLoginThrottled, false, "")
			s.renderLogin(w, r, http.StatusTooManyRequests,
				Flash{flashDanger, fmt.Sprintf("Too many login attempts. Try again in %d minutes.", wait)})
			return
		}
	}

	err := s.creds.Login(r.PostFormValue("password"))
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrNotConfigured):
		s.logger.Error().Err(err).Msg("login: config unavailable")
		s.metrics.incLogin("unconfigured")
		msg := "Error loading configuration."
		if errors.Is(err, panelcfg.ErrMissing) {
			msg = "Panel not configured. Please run voidpanel-setup."
		}
		s.renderLogin(w, r, http.StatusServiceUnavailable, Flash{flashDanger, msg})
		return
	default:
		s.metrics.incLogin("failure")
		s.record(r, audit.KindLoginFailed, false, "")
		s.renderLogin(w, r, http.StatusUnauthorized, Flash{flashDanger, "Invalid password. Please try again."})
		return
	}

	if s.limiter != nil {
		s.limiter.Reset(key)
	}
	if _, err := s.sessions.Issue(w); err != nil {
		s.logger.Error().Err(err).Msg("issue session")
		s.renderLogin(w, r, http.StatusInternalServerError, Flash{flashDanger, "Could not start a session."})
		return
	}
	s.issueCSRF(w)
	s.metrics.incLogin("success")
	s.record(r, audit.KindLogin, true, "")
	s.flash.add(w, r, flashSuccess, "Login successful!")
	http.Redirect(w, r, sessions.SafeNext(r.FormValue("next"), r.Host), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	_, had := s.sessions.FromRequest(r)
	if err := s.sessions.Revoke(r.Context(), w, r); err != nil {
		s.logger.Warn().Err(err).Msg("record session revocation")
	}
	s.clearCSRF(w)
	if had {
		s.record(r, audit.KindLogout, true, "")
	}
	s.flash.add(w, r, flashInfo, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handlePasswordPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "password", "Change password", "/password", nil)
}

var passwordMessages = []struct {
	err error
	msg string
}{
	{auth.ErrInvalidCurrent, "Invalid current password."},
	{auth.ErrPasswordEmpty, "New password cannot be empty."},
	{auth.ErrPasswordTooShort, "New password must be at least 8 characters."},
	{auth.ErrPasswordMismatch, "New password and confirmation do not match."},
	{auth.ErrNotConfigured, "Error loading configuration."},
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	err := s.creds.ChangePassword(r.Context(),
		r.PostFormValue("current_password"),
		r.PostFormValue("new_password"),
		r.PostFormValue("confirm_password"))
	if err == nil {
		s.record(r, audit.KindPasswordChanged, true, "")
		s.flash.add(w, r, flashSuccess, "Password changed successfully!")
		http.Redirect(w, r, "/password", http.StatusSeeOther)
		return
	}
	msg, known := "Could not save the new password.", false
	for _, pm := range passwordMessages {
		if errors.Is(err, pm.err) {
			msg, known = pm.msg, true
			break
		}
	}
	if !known || errors.Is(err, auth.ErrNotConfigured) {
		s.logger.Error().Err(err).Msg("change password")
	}
	s.record(r, audit.KindPasswordFailed, false, msg)
	s.flash.add(w, r, flashDanger, msg)
	http.Redirect(w, r, "/password", http.StatusSeeOther)
}
