package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/viktor-siropol/taskhub/internal/auth"
)

type ctxKey string

const userContextKey ctxKey = "user"

// requireAuth accepts a bearer login token, resolves it to a user and puts
// the user on the request context. Tokens with any other purpose are refused.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := s.Auth.Authenticate(r.Context(), token)
		if err != nil {
			writeFlowError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) *auth.User {
	if val, ok := ctx.Value(userContextKey).(*auth.User); ok {
		return val
	}
	return nil
}
