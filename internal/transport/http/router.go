// Package httptransport exposes the kiosk terminal and admin HTTP API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kiosk/internal/directory"
	directoryservice "kiosk/internal/directory/service"
	"kiosk/internal/token"
)

// UserFinder resolves subscribers by phone so the terminal can issue codes
// without knowing internal ids.
type UserFinder interface {
	FindByPhone(ctx context.Context, phone string) (*directory.User, error)
}

// Registrar handles new subscriber sign-up.
type Registrar interface {
	Register(ctx context.Context, reg directoryservice.Registration) (*directory.User, error)
}

// AdminAuthenticator exchanges admin credentials for a session token.
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, phone, password string) (string, error)
}

type Handler struct {
	auth          AuthService
	users         UserFinder
	registrations Registrar
	admins        AdminAuthenticator
	tokens        *token.Service
	logger        *slog.Logger
}

func NewHandler(
	auth AuthService,
	users UserFinder,
	registrations Registrar,
	admins AdminAuthenticator,
	tokens *token.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:          auth,
		users:         users,
		registrations: registrations,
		admins:        admins,
		tokens:        tokens,
		logger:        logger,
	}
}

// Routes assembles the full API surface.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/users", h.handleRegisterUser)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/code", h.handleIssueCode)
		r.Post("/code/verify", h.handleVerifyCode)
		r.Delete("/code/{code}", h.handleRemoveCode)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.handleAdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(h.tokens, h.logger))
			r.Get("/auth/codes", h.handleActiveCodes)
		})
	})

	return r
}
