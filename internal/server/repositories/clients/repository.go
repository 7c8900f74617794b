package clients

import (
	"context"

	"github.com/legalize/backoffice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Client) (*models.Client, error)
	Update(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.Client, error)
	FindByCaseNumber(ctx context.Context, caseNumber string) ([]*models.Client, error)
	FindByEmail(ctx context.Context, email string) ([]*models.Client, error)
}
