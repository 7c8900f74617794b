package catalog

import (
	"context"
	"fmt"

	"github.com/legalize/backoffice/internal/server/models"
)

// CustomNameStore is the slice of the requirements repository used by
// maintenance.
type CustomNameStore interface {
	ListWithCustomName(ctx context.Context) ([]*models.DocumentRequirement, error)
	ClearCustomName(ctx context.Context, id int64) error
}

// CleanupResult counts rows examined and rows whose custom name was (or, on
// a dry run, would be) cleared.
type CleanupResult struct {
	Total      int
	Normalized int
	DryRun     bool
}

func (r CleanupResult) String() string {
	if r.DryRun {
		return fmt.Sprintf("[dry-run] Would normalize %d of %d custom document names.", r.Normalized, r.Total)
	}
	return fmt.Sprintf("Normalized %d of %d custom document names.", r.Normalized, r.Total)
}

// ClearRedundantNames drops generic custom names on standard codes that
// merely repeat a default label, so translations take over again.
func ClearRedundantNames(ctx context.Context, store CustomNameStore, dryRun bool) (CleanupResult, error) {
	reqs, err := store.ListWithCustomName(ctx)
	if err != nil {
		return CleanupResult{}, err
	}
	res := CleanupResult{Total: len(reqs), DryRun: dryRun}
	for _, r := range reqs {
		if !IsStandard(r.DocumentType) || !IsDefaultLabel(r.DocumentType, r.CustomName) {
			continue
		}
		res.Normalized++
		if dryRun {
			continue
		}
		if err := store.ClearCustomName(ctx, r.ID); err != nil {
			return res, err
		}
	}
	return res, nil
}
