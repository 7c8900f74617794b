package snapshots

import (
	"context"

	"github.com/legalize/backoffice/internal/server/models"
)

// Repository keeps the last-seen inPOL proceedings keyed by proceeding id.
type Repository interface {
	LoadAll(ctx context.Context) (map[string]models.Proceeding, error)
	SaveSnapshot(ctx context.Context, proceedings []models.Proceeding) error
}
