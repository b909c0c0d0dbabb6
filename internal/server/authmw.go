package server

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"voidpanel/internal/sessions"
	"voidpanel/pkg/httpx"

	"github.com/gorilla/securecookie"
)

const (
	cookieCSRF    = "voidpanel_csrf"
	csrfFormField = "csrf_token"
	csrfHeader    = "X-CSRF-Token"
)

// requireSession admits requests carrying a valid session. Anonymous
// requests are sent to the login page with the original URI as next.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.FromRequest(r)
		if !ok {
			target := "/login"
			if r.URL.Path != "/" {
				s.flash.add(w, r, flashWarning, "Please login to access this page.")
				target += "?next=" + url.QueryEscape(r.URL.RequestURI())
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(sessions.WithSession(r.Context(), sess)))
	})
}

// requireCSRF checks the double-submit token on state-changing requests.
func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		ck, err := r.Cookie(cookieCSRF)
		token := r.Header.Get(csrfHeader)
		if token == "" {
			token = r.PostFormValue(csrfFormField)
		}
		if err != nil || ck.Value == "" || token == "" || subtle.ConstantTimeCompare([]byte(ck.Value), []byte(token)) != 1 {
			s.logger.Warn().Str("path", r.URL.Path).Str("remote", clientIP(r)).Msg("csrf check failed")
			if wantsJSON(r) {
				httpx.WriteMessage(w, http.StatusForbidden, "Invalid or missing CSRF token.")
				return
			}
			s.flash.add(w, r, flashDanger, "Your form expired. Please try again.")
			http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfToken returns the request's CSRF token, issuing one when absent.
func (s *Server) csrfToken(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(cookieCSRF); err == nil && ck.Value != "" {
		return ck.Value
	}
	return s.issueCSRF(w)
}

func (s *Server) issueCSRF(w http.ResponseWriter) string {
	tok := base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
	http.SetCookie(w, &http.Cookie{
		Name:     cookieCSRF,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(sessions.TTL),
	})
	return tok
}

func (s *Server) clearCSRF(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cookieCSRF, Value: "", Path: "/", HttpOnly: true, Secure: s.cfg.SecureCookies, SameSite: http.SameSiteLaxMode, MaxAge: -1})
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/actions/") || strings.Contains(r.Header.Get("Accept"), "application/json")
}
