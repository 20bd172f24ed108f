// Package notification defines the one-way message records delivered to
// actors and to the administrator role.
package notification

import "time"

// RecipientAdmin is the sentinel recipient addressing the administrator role
// rather than a specific actor.
const RecipientAdmin = "ADMIN"

// Notification is delivered to a single recipient. All fields except Read are
// immutable once created; Read only ever moves from false to true.
type Notification struct {
	ID        string
	Recipient string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}
