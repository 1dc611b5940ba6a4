package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userentity "github.com/ulyban/contactbook/internal/user/entity"
)

type contextKey int

const userContextKey contextKey = iota

// Middleware guards routes with bearer access tokens. A token passes only
// when its signature and expiry check out AND a session row still exists for
// its user: logout and password reset revoke access tokens immediately, not
// just at expiry.
type Middleware struct {
	tokens   *TokenIssuer
	sessions Sessions
	users    Users
}

func NewMiddleware(tokens *TokenIssuer, sessions Sessions, users Users) *Middleware {
	return &Middleware{tokens: tokens, sessions: sessions, users: users}
}

// Authenticate wraps next, rejecting the request with 401 unless a verified
// user can be attached to the context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "authorization header missing or invalid")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			respondError(w, http.StatusUnauthorized, "token missing")
			return
		}
		claims, err := m.tokens.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				respondError(w, http.StatusUnauthorized, "access token expired")
				return
			}
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if _, err := m.sessions.GetByUserID(r.Context(), claims.Subject); err != nil {
			respondError(w, http.StatusUnauthorized, "session not found or invalid token")
			return
		}
		u, err := m.users.GetByID(r.Context(), claims.Subject)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "user not found")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user attached by Authenticate.
func UserFromContext(ctx context.Context) (*userentity.User, bool) {
	u, ok := ctx.Value(userContextKey).(*userentity.User)
	return u, ok
}
