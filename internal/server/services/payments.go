package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
	"github.com/legalize/backoffice/internal/timex"
	"github.com/shopspring/decimal"
)

// PaymentSync keeps a payment's reminder in line with the payment. Both
// methods run inside the caller's transaction.
type PaymentSync interface {
	SyncPayment(ctx context.Context, tx dbx.DBTX, p *models.Payment) error
	ForgetPayment(ctx context.Context, tx dbx.DBTX, paymentID int64) error
}

// PaymentInput is a payment write as submitted by staff. Empty Service is
// derived from the client's purpose, zero Total from the price table and
// empty Status from the amounts.
type PaymentInput struct {
	ID            int64
	ClientID      int64  `validate:"required,gt=0"`
	Service       string `validate:"omitempty,oneof=study_service work_service consultation"`
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Status        models.PaymentStatus `validate:"omitempty,oneof=pending partial paid refunded"`
	Method        string               `validate:"max=50"`
	PaymentDate   *time.Time
	DueDate       *time.Time
	TransactionID string `validate:"max=100"`
}

type PaymentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sync        PaymentSync
	audit       audit.Recorder
	validate    *validator.Validate
	log         logging.Logger
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, sync PaymentSync,
	rec audit.Recorder, log logging.Logger) *PaymentService {
	return &PaymentService{
		db:          db,
		repomanager: m,
		sync:        sync,
		audit:       rec,
		validate:    validator.New(),
		log:         log.With("module", "payments"),
	}
}

// Save creates or updates a payment and syncs its reminder in the same
// transaction.
func (s *PaymentService) Save(ctx context.Context, rc audit.RequestContext, in PaymentInput) (*models.Payment, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	if in.Total.IsNegative() || in.Paid.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount", common.ErrorValidation)
	}

	var saved *models.Payment
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.repomanager.Clients(tx).GetByID(ctx, in.ClientID)
		if err != nil {
			return err
		}
		p := s.build(in, c)

		payments := s.repomanager.Payments(tx)
		if p.ID == 0 {
			if saved, err = payments.Create(ctx, p); err != nil {
				return err
			}
		} else {
			if err := payments.Update(ctx, p); err != nil {
				return err
			}
			saved = p
		}
		return s.sync.SyncPayment(ctx, tx, saved)
	})
	if err != nil {
		return nil, err
	}

	action := "update"
	if in.ID == 0 {
		action = "create"
	}
	s.audit.Record(ctx, rc, audit.Event{Action: action, Entity: "payment", EntityID: saved.ID,
		Changes: []string{fmt.Sprintf("status: %s", saved.Status), fmt.Sprintf("amount_due: %s", saved.AmountDue().StringFixed(2))}})
	return saved, nil
}

func (s *PaymentService) build(in PaymentInput, c *models.Client) *models.Payment {
	p := &models.Payment{
		ID:                 in.ID,
		ClientID:           c.ID,
		ServiceDescription: in.Service,
		TotalAmount:        in.Total.Round(2),
		AmountPaid:         in.Paid.Round(2),
		Status:             in.Status,
		PaymentMethod:      in.Method,
		PaymentDate:        dayPtr(in.PaymentDate),
		DueDate:            dayPtr(in.DueDate),
		TransactionID:      in.TransactionID,
	}
	if p.ServiceDescription == "" {
		p.ServiceDescription = ServiceForPurpose(c.ApplicationPurpose)
	}
	if p.TotalAmount.IsZero() {
		p.TotalAmount = ServicePrice(p.ServiceDescription)
	}
	if p.Status == "" {
		p.Status = DeriveStatus(p.TotalAmount, p.AmountPaid)
	}
	return p
}

func (s *PaymentService) Get(ctx context.Context, id int64) (*models.Payment, error) {
	return s.repomanager.Payments(s.db).GetByID(ctx, id)
}

func (s *PaymentService) ListByClient(ctx context.Context, clientID int64) ([]*models.Payment, error) {
	return s.repomanager.Payments(s.db).ListByClient(ctx, clientID)
}

// Delete removes the payment together with its reminder.
func (s *PaymentService) Delete(ctx context.Context, rc audit.RequestContext, id int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.sync.ForgetPayment(ctx, tx, id); err != nil {
			return err
		}
		return s.repomanager.Payments(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "delete", Entity: "payment", EntityID: id})
	return nil
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := timex.Today(*t)
	return &d
}
