package inpolaccounts

import (
	"context"

	"github.com/legalize/backoffice/internal/server/models"
)

type Repository interface {
	// Active returns the most recently updated active account.
	Active(ctx context.Context) (*models.InpolAccount, error)
	Create(ctx context.Context, a *models.InpolAccount) (*models.InpolAccount, error)
}
