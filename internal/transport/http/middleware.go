package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"kiosk/internal/token"
)

type contextKeyRequestID struct{}
type contextKeyAdminID struct{}

// GetRequestID retrieves the request ID injected by RequestID.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID{}).(string); ok {
		return id
	}
	return ""
}

// GetAdminID retrieves the authenticated admin subject set by RequireAdmin.
func GetAdminID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyAdminID{}).(string); ok {
		return id
	}
	return ""
}

// RequestID tags every request with a uuid for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), contextKeyRequestID{}, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger emits one structured line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", GetRequestID(r.Context()),
			)
		})
	}
}

// RequireAdmin gates management endpoints behind an admin bearer token.
func RequireAdmin(tokens *token.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			bearer, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := tokens.Validate(bearer)
			if err != nil || claims.Role != token.RoleAdmin {
				logger.WarnContext(r.Context(), "admin access rejected",
					"request_id", GetRequestID(r.Context()))
				unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyAdminID{}, claims.SubjectID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error":   "unauthorized",
		"message": description,
	})
}
