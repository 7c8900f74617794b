package payments

import (
	"context"
	"time"

	"github.com/legalize/backoffice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	Update(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	Delete(ctx context.Context, id int64) error
	ListByClient(ctx context.Context, clientID int64) ([]*models.Payment, error)
	// ListDueWithoutReminder returns pending or partial payments due on day
	// that have no reminder yet.
	ListDueWithoutReminder(ctx context.Context, day time.Time) ([]*models.Payment, error)
	RemapService(ctx context.Context, clientID int64, from, to string) (int64, error)
}
