package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Stewz00/go-login-guard/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// SessionCookie is the cookie carrying the session token after login.
const SessionCookie = "session_token"

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// SessionValidator resolves a session token to its user.
type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.RegisteredClaims, error)
	CurrentUser(ctx context.Context, claims *jwt.RegisteredClaims) (*model.User, error)
}

// ErrNoToken means the request carried neither a bearer token nor a
// session cookie.
var ErrNoToken = errors.New("no session token")

// TokenFromRequest reads the bearer token, falling back to the session
// cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
		return parts[1], nil
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", ErrNoToken
}

// RequireSession rejects requests without a valid session and stores the
// user and token in the request context.
func RequireSession(v SessionValidator, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := TokenFromRequest(r)
			if err != nil {
				unauthenticated(w)
				return
			}

			claims, err := v.ValidateToken(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Msg("session rejected")
				unauthenticated(w)
				return
			}

			user, err := v.CurrentUser(r.Context(), claims)
			if err != nil {
				log.Debug().Err(err).Str("subject", claims.Subject).Msg("session user not loaded")
				unauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}

func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated."})
}
