// Package api implements the hunlearn REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/hunlearn/internal/auth"
)

// AuthMiddleware validates a Bearer access token and stores the user id in
// the request context.
func AuthMiddleware(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			claims, err := tokens.Parse(raw, auth.TypeAccess)
			if err != nil {
				fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), claims.Subject)))
		})
	}
}
