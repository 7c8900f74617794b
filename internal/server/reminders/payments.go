package reminders

import (
	"context"
	"fmt"

	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/services"
)

// SyncPayment applies the payment-reminder rule after a payment write: a
// partial payment with a due date has exactly one active reminder, any
// other payment has none.
func (s *Scheduler) SyncPayment(ctx context.Context, tx dbx.DBTX, p *models.Payment) error {
	repo := s.repomanager.Reminders(tx)
	if !p.NeedsReminder() {
		if _, err := repo.DeleteForPayment(ctx, p.ID); err != nil {
			return fmt.Errorf("drop payment reminder: %w", err)
		}
		return nil
	}
	_, err := repo.UpsertForPayment(ctx, &models.Reminder{
		ClientID:  p.ClientID,
		PaymentID: &p.ID,
		Type:      models.ReminderPayment,
		Title:     "Second payment: " + services.ServiceLabel(p.ServiceDescription),
		Notes:     fmt.Sprintf("Remaining: %s zł. Invoice #%d", p.AmountDue().StringFixed(2), p.ID),
		DueDate:   *p.DueDate,
		IsActive:  true,
	})
	if err != nil {
		return fmt.Errorf("upsert payment reminder: %w", err)
	}
	return nil
}

// ForgetPayment removes the reminder of a payment that is being deleted.
func (s *Scheduler) ForgetPayment(ctx context.Context, tx dbx.DBTX, paymentID int64) error {
	if _, err := s.repomanager.Reminders(tx).DeleteForPayment(ctx, paymentID); err != nil {
		return fmt.Errorf("drop payment reminder: %w", err)
	}
	return nil
}

var _ services.PaymentSync = (*Scheduler)(nil)
