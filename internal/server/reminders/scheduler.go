// Package reminders derives reminders from document expiry dates and payment
// due dates. A source entity has at most one reminder; the sweep only
// inserts where none exists and the payment signal upserts or deletes.
package reminders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/metrics"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/notify"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
	"github.com/legalize/backoffice/internal/server/services"
	"github.com/legalize/backoffice/internal/timex"
)

const (
	documentHorizonDays = 30
	expiringNoticeDays  = 7
	reminderLanguage    = "en"
)

// SweepResult counts what one sweep did.
type SweepResult struct {
	DocumentReminders int `json:"document_reminders"`
	PaymentReminders  int `json:"payment_reminders"`
	MissingEmails     int `json:"missing_emails"`
	ExpiringEmails    int `json:"expiring_emails"`
	ExpiredEmails     int `json:"expired_emails"`
}

func (r SweepResult) String() string {
	return fmt.Sprintf("document reminders: %d, payment reminders: %d, e-mails: missing %d, expiring %d, expired %d",
		r.DocumentReminders, r.PaymentReminders, r.MissingEmails, r.ExpiringEmails, r.ExpiredEmails)
}

type Scheduler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    *notify.Notifier
	audit       audit.Recorder
	clock       timex.Clock
	log         logging.Logger
}

func NewScheduler(db *sql.DB, m repomanager.RepositoryManager, notifier *notify.Notifier,
	rec audit.Recorder, clock timex.Clock, log logging.Logger) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		db:          db,
		repomanager: m,
		notifier:    notifier,
		audit:       rec,
		clock:       clock,
		log:         log.With("module", "reminders"),
	}
}

func (s *Scheduler) today() time.Time {
	return timex.Today(s.clock())
}

// Sweep creates missing document and payment reminders, each step in its own
// transaction, then sends the client notifications. A failed step aborts
// the sweep; e-mail failures never do.
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	var res SweepResult
	today := s.today()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.documentReminders(ctx, tx, today)
		res.DocumentReminders = n
		return err
	})
	if err != nil {
		return res, fmt.Errorf("document reminders: %w", err)
	}
	metrics.RemindersCreated.WithLabelValues(string(models.ReminderDocument)).Add(float64(res.DocumentReminders))

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.paymentReminders(ctx, tx, today)
		res.PaymentReminders = n
		return err
	})
	if err != nil {
		return res, fmt.Errorf("payment reminders: %w", err)
	}
	metrics.RemindersCreated.WithLabelValues(string(models.ReminderPayment)).Add(float64(res.PaymentReminders))

	if err := s.notify(ctx, today, &res); err != nil {
		return res, fmt.Errorf("notifications: %w", err)
	}
	s.log.Info(ctx, "sweep finished", "result", res.String())
	return res, nil
}

func (s *Scheduler) documentReminders(ctx context.Context, tx dbx.DBTX, today time.Time) (int, error) {
	docs, err := s.repomanager.Documents(tx).ListExpiringWithoutReminder(ctx, today, today.AddDate(0, 0, documentHorizonDays))
	if err != nil {
		return 0, err
	}
	repo := s.repomanager.Reminders(tx)
	created := 0
	for _, d := range docs {
		ok, err := repo.CreateForDocument(ctx, documentReminder(d))
		if err != nil {
			return created, fmt.Errorf("document %d: %w", d.ID, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func documentReminder(d *models.Document) *models.Reminder {
	return &models.Reminder{
		ClientID:   d.ClientID,
		DocumentID: &d.ID,
		Type:       models.ReminderDocument,
		Title:      fmt.Sprintf("Document %s expires", catalog.LabelFor(d.DocumentType, reminderLanguage)),
		Notes:      "Valid until " + d.ExpiryDate.Format(common.DisplayDate),
		DueDate:    *d.ExpiryDate,
		IsActive:   true,
	}
}

func (s *Scheduler) paymentReminders(ctx context.Context, tx dbx.DBTX, today time.Time) (int, error) {
	payments, err := s.repomanager.Payments(tx).ListDueWithoutReminder(ctx, today)
	if err != nil {
		return 0, err
	}
	repo := s.repomanager.Reminders(tx)
	created := 0
	for _, p := range payments {
		ok, err := repo.CreateForPayment(ctx, &models.Reminder{
			ClientID:  p.ClientID,
			PaymentID: &p.ID,
			Type:      models.ReminderPayment,
			Title:     "Payment due today: " + services.ServiceLabel(p.ServiceDescription),
			Notes: fmt.Sprintf("Invoice total %s zł. Still to pay: %s zł.",
				p.TotalAmount.StringFixed(2), p.AmountDue().StringFixed(2)),
			DueDate:  *p.DueDate,
			IsActive: true,
		})
		if err != nil {
			return created, fmt.Errorf("payment %d: %w", p.ID, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// notify sends the per-client e-mails of a sweep: the missing-documents
// gap, one consolidated notice about documents expiring within a week and,
// the day after a fingerprints appointment, the list of expired documents.
func (s *Scheduler) notify(ctx context.Context, today time.Time, res *SweepResult) error {
	clients, err := s.repomanager.Clients(s.db).List(ctx)
	if err != nil {
		return err
	}
	expiring, err := s.repomanager.Documents(s.db).ListExpiring(ctx, today, today.AddDate(0, 0, expiringNoticeDays))
	if err != nil {
		return err
	}
	byClient := make(map[int64][]*models.Document)
	for _, d := range expiring {
		byClient[d.ClientID] = append(byClient[d.ClientID], d)
	}

	cat := catalog.New(s.repomanager.Requirements(s.db))
	yesterday := today.AddDate(0, 0, -1)

	for _, c := range clients {
		docs, err := s.repomanager.Documents(s.db).ListByClient(ctx, c.ID)
		if err != nil {
			return err
		}
		checklist, err := cat.Checklist(ctx, c, docs)
		if err != nil {
			return err
		}

		if s.notifier.MissingDocuments(ctx, c, checklist) > 0 {
			res.MissingEmails++
		}
		if soon := byClient[c.ID]; len(soon) > 0 {
			if s.notifier.ExpiringDocuments(ctx, c, soon, docs, checklist) > 0 {
				res.ExpiringEmails++
			}
		}
		if c.FingerprintsDate != nil && sameDay(*c.FingerprintsDate, yesterday) {
			expired, err := s.repomanager.Documents(s.db).ListExpiredByClient(ctx, c.ID, today)
			if err != nil {
				return err
			}
			if s.notifier.ExpiredDocuments(ctx, c, expired) > 0 {
				res.ExpiredEmails++
			}
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
