// Package identity defines the verified actor supplied by the authentication
// layer and the authorization policy applied to it.
package identity

import (
	"context"
	"strings"
)

// Actor is a resolved caller identity.
type Actor struct {
	ID      string
	Email   string
	IsAdmin bool
}

// Policy decides whether an identity holds the administrator role.
type Policy interface {
	IsAdmin(email string) bool
}

// EmailPolicy grants the administrator role to exactly one configured email.
type EmailPolicy struct {
	adminEmail string
}

// NewEmailPolicy builds a policy from the configured administrator email.
func NewEmailPolicy(adminEmail string) EmailPolicy {
	return EmailPolicy{adminEmail: strings.ToLower(strings.TrimSpace(adminEmail))}
}

// IsAdmin reports whether email is the administrator identity.
func (p EmailPolicy) IsAdmin(email string) bool {
	return p.adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), p.adminEmail)
}

type contextKey struct{}

// WithActor attaches the resolved actor to a request context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFrom extracts the actor placed in the context by the identity gate.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}
