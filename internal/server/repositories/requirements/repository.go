package requirements

import (
	"context"

	"github.com/legalize/backoffice/internal/server/models"
)

type Repository interface {
	ListByPurpose(ctx context.Context, purpose string) ([]*models.DocumentRequirement, error)
	Upsert(ctx context.Context, req *models.DocumentRequirement) (*models.DocumentRequirement, error)
	SetRequired(ctx context.Context, purpose, documentType string, required bool) error
	ListWithCustomName(ctx context.Context) ([]*models.DocumentRequirement, error)
	ClearCustomName(ctx context.Context, id int64) error
}
