package models

import "time"

// Party is an opaque requester/approver identity. The core compares
// parties by ID only; name and email exist for notifications.
type Party struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}
