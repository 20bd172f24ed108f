// Package profile defines the persisted user directory entry.
package profile

import "time"

// AccountStatus is the standing of a profile in the directory.
type AccountStatus string

const (
	// StatusActive is the default standing.
	StatusActive AccountStatus = "Active"
	// StatusSuspended blocks a profile without deleting it.
	StatusSuspended AccountStatus = "Suspended"
)

// Profile is a directory entry for an authenticated user.
type Profile struct {
	ID            string
	Email         string
	Name          string
	PhotoURL      string
	Role          string
	AccountStatus AccountStatus
	CreatedAt     time.Time
}
