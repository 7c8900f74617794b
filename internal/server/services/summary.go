package services

import (
	"context"
	"time"

	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/timex"
	"github.com/shopspring/decimal"
)

const summaryExpiringDays = 30

type PaymentSummary struct {
	Total     int             `json:"total"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	TotalDue  decimal.Decimal `json:"total_due"`
	Pending   int             `json:"pending"`
	Partial   int             `json:"partial"`
	Paid      int             `json:"paid"`
}

type DocumentSummary struct {
	Total                int `json:"total"`
	Verified             int `json:"verified"`
	AwaitingConfirmation int `json:"awaiting_confirmation"`
	Missing              int `json:"missing"`
	ExpiringSoon         int `json:"expiring_soon"`
}

type ReminderSummary struct {
	Active   int `json:"active"`
	Payment  int `json:"payment_reminders"`
	Document int `json:"document_reminders"`
	Other    int `json:"other_reminders"`
}

// Summary is the staff overview of one client.
type Summary struct {
	ClientID          int64           `json:"client_id"`
	Status            string          `json:"application_status"`
	Purpose           string          `json:"application_purpose"`
	Payments          PaymentSummary  `json:"payments"`
	Documents         DocumentSummary `json:"documents"`
	Reminders         ReminderSummary `json:"reminders"`
	HasPendingTasks   bool            `json:"has_pending_tasks"`
	NeedsAttention    bool            `json:"needs_attention"`
	MissingDocuments  []string        `json:"missing_documents"`
}

// Summary aggregates payments, documents and active reminders of a client
// as of the given time.
func (s *ClientService) Summary(ctx context.Context, id int64, asOf time.Time) (*Summary, error) {
	c, err := s.repomanager.Clients(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repomanager.Payments(s.db).ListByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	reminders, err := s.repomanager.Reminders(s.db).ListByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	docs, err := s.repomanager.Documents(s.db).ListByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	checklist, err := catalog.New(s.repomanager.Requirements(s.db)).Checklist(ctx, c, docs)
	if err != nil {
		return nil, err
	}

	sum := &Summary{ClientID: c.ID, Status: string(c.Status), Purpose: c.ApplicationPurpose}
	sum.Payments = summarizePayments(payments)

	today := timex.Today(asOf)
	threshold := today.AddDate(0, 0, summaryExpiringDays)
	sum.Documents.Total = len(docs)
	for _, d := range docs {
		if d.Verified {
			sum.Documents.Verified++
		}
		if d.AwaitingConfirmation {
			sum.Documents.AwaitingConfirmation++
		}
		if d.ExpiryDate != nil && !d.ExpiryDate.Before(today) && !d.ExpiryDate.After(threshold) {
			sum.Documents.ExpiringSoon++
		}
	}
	missing := catalog.Missing(checklist)
	sum.Documents.Missing = len(missing)
	sum.MissingDocuments = make([]string, 0, len(missing))
	for _, it := range missing {
		sum.MissingDocuments = append(sum.MissingDocuments, it.Label)
	}

	for _, r := range reminders {
		if !r.IsActive {
			continue
		}
		sum.Reminders.Active++
		switch r.Type {
		case models.ReminderPayment:
			sum.Reminders.Payment++
		case models.ReminderDocument:
			sum.Reminders.Document++
		default:
			sum.Reminders.Other++
		}
	}

	sum.HasPendingTasks = sum.Documents.Missing > 0 || sum.Reminders.Active > 0
	sum.NeedsAttention = sum.Payments.TotalDue.IsPositive() || sum.Documents.Missing > 0 || sum.Documents.ExpiringSoon > 0
	return sum, nil
}

func summarizePayments(payments []*models.Payment) PaymentSummary {
	ps := PaymentSummary{Total: len(payments), TotalPaid: decimal.Zero, TotalDue: decimal.Zero}
	for _, p := range payments {
		ps.TotalPaid = ps.TotalPaid.Add(p.AmountPaid)
		ps.TotalDue = ps.TotalDue.Add(p.AmountDue())
		switch p.Status {
		case models.PaymentPending:
			ps.Pending++
		case models.PaymentPartial:
			ps.Partial++
		case models.PaymentPaid:
			ps.Paid++
		}
	}
	return ps
}
