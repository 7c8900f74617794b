package models

import "time"

// User is the login account optionally linked to a client.
type User struct {
	ID        int64
	Email     string
	IsStaff   bool
	CreatedAt time.Time
}
