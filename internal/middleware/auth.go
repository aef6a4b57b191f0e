package middleware

import (
	"context"
	"net/http"
	"strings"

	"studytrack/internal/auth"
	"studytrack/internal/models"
	"studytrack/internal/store"

	"go.uber.org/zap"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves bearer tokens into users for downstream handlers.
type Authenticator struct {
	tokens *auth.TokenService
	store  store.Store
	log    *zap.Logger
}

func NewAuthenticator(tokens *auth.TokenService, st store.Store, log *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, store: st, log: log}
}

// Middleware validates the Authorization header and adds the user to the
// request context. Every failure path returns the same response so callers
// cannot tell a bad token from an unknown account; the real cause goes to the
// server log only.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			a.unauthorized(w, r, "missing bearer token")
			return
		}

		email, err := a.tokens.Validate(token)
		if err != nil {
			a.unauthorized(w, r, "token validation failed")
			return
		}

		user, err := a.store.GetUserByEmail(email)
		if err != nil {
			a.unauthorized(w, r, "no user for token subject")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) unauthorized(w http.ResponseWriter, r *http.Request, cause string) {
	a.log.Info("unauthenticated request",
		zap.String("path", r.URL.Path),
		zap.String("cause", cause))
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, "could not validate credentials", http.StatusUnauthorized)
}

// UserFromContext retrieves the authenticated user from the request context.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}
