// Package middleware provides HTTP middleware for the review layer.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/identity"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

// Claims are the JWT claims the identity gate consumes.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ProfileRegistrar upserts a directory entry for an authenticated actor.
type ProfileRegistrar interface {
	Ensure(ctx context.Context, actor identity.Actor) error
}

// IdentityGate resolves the Bearer token on each request to an Actor and
// attaches it to the context. The administrator flag comes from the injected
// policy, never from token claims.
type IdentityGate struct {
	secret    []byte
	policy    identity.Policy
	registrar ProfileRegistrar
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewIdentityGate creates the gate. skipPaths bypass authentication
// entirely (health and metrics endpoints).
func NewIdentityGate(secret []byte, policy identity.Policy, registrar ProfileRegistrar, log *logger.Logger, skipPaths []string) *IdentityGate {
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	if log == nil {
		log = logger.NewDefault("identity-gate")
	}
	return &IdentityGate{
		secret:    secret,
		policy:    policy,
		registrar: registrar,
		log:       log,
		skipPaths: skip,
	}
}

// Handler returns the middleware handler.
func (g *IdentityGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "missing Authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(w, "invalid Authorization header format")
			return
		}

		claims, err := g.validateToken(parts[1])
		if err != nil {
			g.log.WithError(err).Warn("token validation failed")
			unauthorized(w, "invalid token")
			return
		}

		actor := identity.Actor{
			ID:      claims.UserID,
			Email:   claims.Email,
			IsAdmin: g.policy.IsAdmin(claims.Email),
		}

		if g.registrar != nil {
			if err := g.registrar.Ensure(r.Context(), actor); err != nil {
				g.log.WithError(err).Warnf("profile upsert for %s failed", actor.ID)
			}
		}

		next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), actor)))
	})
}

func (g *IdentityGate) validateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token invalid")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token missing user_id claim")
	}
	return claims, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q}`, message)
}

// RequireActor extracts the actor from the context or reports a taxonomy
// error for handlers invoked without the gate.
func RequireActor(ctx context.Context) (identity.Actor, error) {
	actor, ok := identity.ActorFrom(ctx)
	if !ok {
		return identity.Actor{}, apperrors.Unauthorized("no authenticated actor")
	}
	return actor, nil
}
