package documents

import (
	"context"
	"time"

	"github.com/legalize/backoffice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, d *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	Update(ctx context.Context, d *models.Document) error
	Delete(ctx context.Context, id int64) error
	ListByClient(ctx context.Context, clientID int64) ([]*models.Document, error)
	// ListExpiringWithoutReminder returns documents with from <= expiry_date <= to
	// that have no reminder yet.
	ListExpiringWithoutReminder(ctx context.Context, from, to time.Time) ([]*models.Document, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Document, error)
	ListExpiredByClient(ctx context.Context, clientID int64, day time.Time) ([]*models.Document, error)
	SetVerifiedForClient(ctx context.Context, clientID int64, verified bool) (int64, error)
}
