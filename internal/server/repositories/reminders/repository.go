package reminders

import (
	"context"
	"time"

	"github.com/legalize/backoffice/internal/server/models"
)

type Repository interface {
	// CreateForDocument inserts the reminder unless the document already has
	// one. created is false when the existing row was kept.
	CreateForDocument(ctx context.Context, r *models.Reminder) (created bool, err error)
	CreateForPayment(ctx context.Context, r *models.Reminder) (created bool, err error)
	UpsertForPayment(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	DeleteForPayment(ctx context.Context, paymentID int64) (int64, error)
	GetForPayment(ctx context.Context, paymentID int64) (*models.Reminder, error)
	ListByClient(ctx context.Context, clientID int64) ([]*models.Reminder, error)
	ListActive(ctx context.Context, f Filter) ([]*models.Reminder, error)
	GetByID(ctx context.Context, id int64) (*models.Reminder, error)
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// Filter narrows ListActive. Zero fields match everything.
type Filter struct {
	Type     models.ReminderType
	ClientID int64
	From     *time.Time
	To       *time.Time
}
