package item

import "testing"

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusVerified, StatusRejected, StatusMinted} {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	for _, s := range []Status{"", "pending", "Approved"} {
		if s.Valid() {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func TestStatusDecision(t *testing.T) {
	if !StatusVerified.Decision() || !StatusRejected.Decision() {
		t.Fatal("Verified and Rejected are decisions")
	}
	if StatusPending.Decision() || StatusMinted.Decision() {
		t.Fatal("Pending and Minted are not decisions")
	}
}
