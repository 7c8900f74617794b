package models

import "time"

type ReminderType string

const (
	ReminderPayment  ReminderType = "payment"
	ReminderDocument ReminderType = "document"
	ReminderOther    ReminderType = "other"
)

// Reminder belongs to a client and optionally to exactly one payment or
// document; the store keeps at most one reminder per source.
type Reminder struct {
	ID         int64
	ClientID   int64
	PaymentID  *int64
	DocumentID *int64
	Type       ReminderType
	Title      string
	Notes      string
	DueDate    time.Time
	IsActive   bool
	CreatedAt  time.Time
}
