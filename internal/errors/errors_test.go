package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("item %s not found", "i1")
	wrapped := fmt.Errorf("load item: %w", base)

	if !IsKind(wrapped, KindNotFound) {
		t.Fatal("kind must survive fmt.Errorf wrapping")
	}
	if IsKind(wrapped, KindValidation) {
		t.Fatal("wrong kind must not match")
	}
	if !errors.Is(wrapped, &Error{Kind: KindNotFound}) {
		t.Fatal("errors.Is must match by kind")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := LedgerUnavailable("ledger record request", cause)

	if !errors.Is(err, cause) {
		t.Fatal("cause must be reachable through the chain")
	}
	if err.Error() != "ledger record request: connection refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthorized("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{LedgerUnavailable("down", nil), http.StatusServiceUnavailable},
		{Persistence("broken", nil), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", Validation("bad")), http.StatusBadRequest},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
