package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Service codes billed to clients.
const (
	ServiceStudy        = "study_service"
	ServiceWork         = "work_service"
	ServiceConsultation = "consultation"
)

type Payment struct {
	ID                 int64
	ClientID           int64
	ServiceDescription string
	TotalAmount        decimal.Decimal
	AmountPaid         decimal.Decimal
	Status             PaymentStatus
	PaymentMethod      string
	PaymentDate        *time.Time
	DueDate            *time.Time
	TransactionID      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (p *Payment) AmountDue() decimal.Decimal {
	return p.TotalAmount.Sub(p.AmountPaid)
}

func (p *Payment) IsFullyPaid() bool {
	return p.AmountPaid.GreaterThanOrEqual(p.TotalAmount)
}

// NeedsReminder reports whether a second-payment reminder must exist.
func (p *Payment) NeedsReminder() bool {
	return p.Status == PaymentPartial && p.DueDate != nil
}
