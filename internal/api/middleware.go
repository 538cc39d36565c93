// Package api implements the recall REST API using chi.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/recall/internal/apperr"
)

// Auth modes.
const (
	AuthDisabled = "disabled"
	AuthToken    = "token"
	AuthJWT      = "jwt"
)

// AuthConfig selects how requests are authenticated and who they act as.
type AuthConfig struct {
	Mode      string `yaml:"mode"`
	Token     string `yaml:"token"`
	Owner     string `yaml:"owner"`
	JWTSecret string `yaml:"jwt_secret"`
}

type ownerKey struct{}

// WithOwner returns a copy of ctx carrying the authenticated owner id.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFrom returns the owner id stored by AuthMiddleware.
func OwnerFrom(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

// AuthMiddleware authenticates the request according to cfg and stores the
// owner id in the request context.
//
// In disabled mode every request acts as cfg.Owner. Token mode requires
// "Authorization: Bearer <token>" and also acts as cfg.Owner. JWT mode
// verifies an HS256 token and takes the owner from its sub (or user_id) claim.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var owner string
			switch cfg.Mode {
			case AuthToken:
				if !constantEqual(bearer(r), cfg.Token) {
					writeError(w, "auth", apperr.ErrUnauthorized)
					return
				}
				owner = cfg.Owner
			case AuthJWT:
				sub, err := jwtOwner(bearer(r), cfg.JWTSecret)
				if err != nil {
					writeError(w, "auth", fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err))
					return
				}
				owner = sub
			default:
				owner = cfg.Owner
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

// APIKeyMiddleware guards the public routes with an x-api-key header when key
// is non-empty.
func APIKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && !constantEqual(r.Header.Get("x-api-key"), key) {
				writeError(w, "api key", apperr.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func constantEqual(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

var errNoSubject = errors.New("token has no subject")

func jwtOwner(raw, secret string) (string, error) {
	if raw == "" {
		return "", jwt.ErrTokenMalformed
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if sub, _ := claims.GetSubject(); sub != "" {
		return sub, nil
	}
	if uid, ok := claims["user_id"].(string); ok && uid != "" {
		return uid, nil
	}
	return "", errNoSubject
}
