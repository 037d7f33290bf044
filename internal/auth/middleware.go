package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/glyphedit/glyphedit/internal/api"
)

type contextKey string

const UserIDKey contextKey = "userID"

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the token query parameter that browsers use for
// websocket upgrades.
func TokenFromRequest(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	token := r.URL.Query().Get("token")
	return token, token != ""
}

func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := TokenFromRequest(r)
		if !ok {
			api.Error(w, http.StatusUnauthorized, "missing or malformed credentials")
			return
		}

		userID, err := s.ValidateToken(token)
		if err != nil {
			errorMap.Write(w, err)
			return
		}

		ctx := WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUserID returns a context carrying the authenticated user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}
