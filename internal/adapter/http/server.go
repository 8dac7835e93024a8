// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"
	"time"

	"medtrack/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OIDCConfig carries the optional SSO settings.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	reminders *app.ReminderService
	adherence *app.AdherenceService
	calendar  *app.CalendarService
	advice    *app.AdviceService
	authSvc   *app.AuthService

	oidcConfig OIDCConfig
	log        *zap.SugaredLogger

	// now is captured once per request and threaded through every
	// evaluator and tracker call, so a request straddling midnight
	// stays internally consistent. Tests override it.
	now func() time.Time

	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(rs *app.ReminderService, as *app.AdherenceService, cs *app.CalendarService, av *app.AdviceService, auth *app.AuthService, oc OIDCConfig, log *zap.SugaredLogger) *Server {
	return &Server{
		reminders:  rs,
		adherence:  as,
		calendar:   cs,
		advice:     av,
		authSvc:    auth,
		oidcConfig: oc,
		log:        log,
		now:        time.Now,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("POST /auth/logout", s.handleLogout)
	api.HandleFunc("POST /auth/setup", s.handleSetupUser)
	api.HandleFunc("GET /auth/config", s.handleConfig)
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /reminders", s.handleCreateReminder)
	protected.HandleFunc("GET /reminders", s.handleListReminders)
	protected.HandleFunc("GET /reminders/{id}", s.handleGetReminder)
	protected.HandleFunc("PUT /reminders/{id}", s.handleUpdateReminder)
	protected.HandleFunc("DELETE /reminders/{id}", s.handleDeleteReminder)
	protected.HandleFunc("POST /reminders/{id}/toggle", s.handleToggleActive)
	protected.HandleFunc("POST /reminders/{id}/taken", s.handleToggleTaken)
	protected.HandleFunc("POST /reminders/{id}/action", s.handleLogAction)
	protected.HandleFunc("GET /reminders/{id}/adherence", s.handleAdherence)
	protected.HandleFunc("GET /reminders/{id}/advice", s.handleAdvice)

	protected.HandleFunc("GET /calendar", s.handleCalendar)
	protected.HandleFunc("GET /schedule", s.handleSchedule)
	protected.HandleFunc("GET /adherence/stats", s.handleAdherenceStats)
	protected.HandleFunc("GET /adherence/chart", s.handleAdherenceChart)

	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(withNoCache(root))
}
