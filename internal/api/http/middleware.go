package http

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"rentaldesk-backend/internal/logger"
	"rentaldesk-backend/internal/security"
)

type contextKey string

const claimsContextKey contextKey = "staff_claims"

// StaffFromContext returns the authenticated staff claims, if any.
func StaffFromContext(ctx context.Context) (*security.StaffClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*security.StaffClaims)
	return claims, ok
}

// AuthMiddleware validates the Bearer token on staff endpoints and attaches
// the claims to the request context.
func AuthMiddleware(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Warn("Token validation failed", "error", err, "path", r.URL.Path)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminKeyMiddleware guards reconciliation endpoints with a shared admin key.
// Only the bcrypt hash of the key is held in configuration.
func AdminKeyMiddleware(adminKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKeyHash == "" {
				writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin endpoints are disabled"})
				return
			}

			key := r.Header.Get("X-Admin-Key")
			if key == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing admin key"})
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)); err != nil {
				logger.Warn("Admin key rejected", "path", r.URL.Path)
				writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid admin key"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
