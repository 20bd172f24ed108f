package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/identity"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, userID, email string) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type captureRegistrar struct {
	mu     sync.Mutex
	actors []identity.Actor
}

func (r *captureRegistrar) Ensure(_ context.Context, actor identity.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors = append(r.actors, actor)
	return nil
}

func gateHandler(t *testing.T, registrar ProfileRegistrar) (http.Handler, *identity.Actor) {
	t.Helper()
	policy := identity.NewEmailPolicy("admin@example.com")
	gate := NewIdentityGate(testSecret, policy, registrar, nil, []string{"/healthz"})

	var seen identity.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := identity.ActorFrom(r.Context()); ok {
			seen = actor
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return gate.Handler(next), &seen
}

func TestGateAttachesActor(t *testing.T) {
	registrar := &captureRegistrar{}
	handler, seen := gateHandler(t, registrar)

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1", "user@example.com"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if seen.ID != "user-1" || seen.Email != "user@example.com" || seen.IsAdmin {
		t.Fatalf("unexpected actor %+v", *seen)
	}
	if len(registrar.actors) != 1 || registrar.actors[0].ID != "user-1" {
		t.Fatalf("registrar not invoked, got %+v", registrar.actors)
	}
}

func TestGateAdminFlagFromPolicy(t *testing.T) {
	handler, seen := gateHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "admin-1", "Admin@Example.com"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !seen.IsAdmin {
		t.Fatal("policy email match must grant the admin flag")
	}
}

func TestGateRejections(t *testing.T) {
	handler, _ := gateHandler(t, nil)

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"missing header", func(r *http.Request) {}},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }},
		{"wrong secret", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, []byte("other"), "user-1", "user@example.com"))
		}},
		{"missing user_id", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "", "user@example.com"))
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/items", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestGateSkipPaths(t *testing.T) {
	handler, _ := gateHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("skip path must bypass auth, got %d", rec.Code)
	}
}

func TestRequireActor(t *testing.T) {
	if _, err := RequireActor(context.Background()); err == nil {
		t.Fatal("expected error without actor")
	}

	ctx := identity.WithActor(context.Background(), identity.Actor{ID: "user-1"})
	actor, err := RequireActor(ctx)
	if err != nil {
		t.Fatalf("require actor: %v", err)
	}
	if actor.ID != "user-1" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}
