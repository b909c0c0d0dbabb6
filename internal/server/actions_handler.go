package server

import (
	"context"
	"net/http"
	"strings"

	"voidpanel/internal/audit"
	"voidpanel/pkg/httpx"
	"voidpanel/pkg/power"
)

type powerAction struct {
	name   string
	kind   audit.Kind
	issued string
	run    func(PowerController, context.Context) power.Result
}

var (
	rebootAction = powerAction{
		name:   "reboot",
		kind:   audit.KindReboot,
		issued: "Server reboot command issued!",
		run:    PowerController.Reboot,
	}
	shutdownAction = powerAction{
		name:   "shutdown",
		kind:   audit.KindShutdown,
		issued: "Server shutdown command issued!",
		run:    PowerController.Shutdown,
	}
)

func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	s.runPowerAction(w, r, rebootAction)
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	s.runPowerAction(w, r, shutdownAction)
}

// runPowerAction executes a privileged command once and reports the outcome
// as JSON plus a flash for the next page load.
func (s *Server) runPowerAction(w http.ResponseWriter, r *http.Request, a powerAction) {
	ip := clientIP(r)
	s.logger.Warn().Str("action", a.name).Str("remote", ip).Msg("power action requested")
	if s.notifier.Enabled() {
		host := s.consoleHost(r)
		if err := s.notifier.Notify(r.Context(), "voidpanel: "+a.name+" requested on "+host+" from "+ip); err != nil {
			s.logger.Warn().Err(err).Msg("power action notification")
		}
	}

	// detached from the request so a client disconnect cannot kill sudo midway
	res := a.run(s.power, context.WithoutCancel(r.Context()))
	s.metrics.incAction(a.name, res.OK)
	s.record(r, a.kind, res.OK, res.Message)

	if res.OK {
		s.logger.Info().Str("action", a.name).Msg("power command sent")
		s.flash.add(w, r, flashSuccess, a.issued)
		httpx.WriteMessage(w, http.StatusOK, res.Message)
		return
	}
	s.logger.Error().Str("action", a.name).Int("code", res.Code).Str("message", res.Message).Msg("power command failed")
	flash := res.Message
	if rest, ok := strings.CutPrefix(res.Message, "Exception: "); ok {
		flash = "Exception during " + a.name + ": " + rest
	}
	s.flash.add(w, r, flashDanger, flash)
	httpx.WriteMessage(w, http.StatusInternalServerError, res.Message)
}
