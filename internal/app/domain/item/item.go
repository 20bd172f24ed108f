// Package item defines the submission record governed by the verification
// lifecycle.
package item

import "time"

// Status is the lifecycle state of an item.
type Status string

const (
	// StatusPending is the initial state of every submission.
	StatusPending Status = "Pending"
	// StatusVerified marks a submission approved by the reviewer.
	StatusVerified Status = "Verified"
	// StatusRejected marks a submission declined by the reviewer.
	StatusRejected Status = "Rejected"
	// StatusMinted marks a verified submission recorded on the ledger.
	StatusMinted Status = "Minted"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusMinted:
		return true
	}
	return false
}

// Decision reports whether s is a reviewer decision outcome.
func (s Status) Decision() bool {
	return s == StatusVerified || s == StatusRejected
}

// Item is a user-submitted work record. OwnerID, OwnerEmail and CreatedAt are
// immutable after creation; LedgerReceipt is non-empty only while Status is
// StatusMinted.
type Item struct {
	ID            string
	OwnerID       string
	OwnerEmail    string
	Name          string
	TechStack     string
	RepoURL       string
	Status        Status
	Feedback      string
	LedgerReceipt string
	CreatedAt     time.Time
}
