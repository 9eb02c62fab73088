package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/excommunicades/starnavi/internal/auth"
)

type contextKey string

const userContextKey contextKey = "user"

// UserID returns the authenticated user's ID from the request context,
// if the request passed through the Auth middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userContextKey).(int64)
	return id, ok
}

// WithUserID returns a context carrying the given user ID, as if the
// request had passed through the Auth middleware.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userContextKey, id)
}

// Auth returns a middleware that requires a valid bearer token on every
// request. The verified user ID is stored on the request context for
// handlers to read via UserID.
func Auth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			userID, err := svc.VerifyToken(r.Context(), token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
