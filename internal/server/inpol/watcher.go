package inpol

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/metrics"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
)

// Portal is the part of Client the watcher needs.
type Portal interface {
	SignIn(ctx context.Context, cr Credentials) (*AuthResult, error)
	FetchActiveProceedings(ctx context.Context) ([]map[string]any, error)
}

// Watcher compares the portal's active proceedings with the stored
// snapshots.
type Watcher struct {
	portal      Portal
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewWatcher(portal Portal, db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *Watcher {
	return &Watcher{portal: portal, db: db, repomanager: m, log: log.With("module", "inpol")}
}

// Check signs in, fetches and parses the active proceedings, stores them as
// the new snapshot and returns the proceedings that are new or whose status
// moved. Proceedings gone from the portal are neither reported nor pruned.
func (w *Watcher) Check(ctx context.Context, cr Credentials) (changes []models.ProceedingChange, err error) {
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.InpolChecks.WithLabelValues(outcome).Inc()
		metrics.InpolChanges.Add(float64(len(changes)))
	}()

	if _, err := w.portal.SignIn(ctx, cr); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	raw, err := w.portal.FetchActiveProceedings(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch proceedings: %w", err)
	}
	current := make([]models.Proceeding, 0, len(raw))
	for i, item := range raw {
		p, err := ParseProceeding(item)
		if err != nil {
			return nil, fmt.Errorf("proceeding %d: %w", i, err)
		}
		current = append(current, p)
	}

	err = dbx.WithTx(ctx, w.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := w.repomanager.Snapshots(tx)
		previous, err := repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		changes = Diff(previous, current)
		return repo.SaveSnapshot(ctx, current)
	})
	if err != nil {
		return nil, fmt.Errorf("snapshots: %w", err)
	}
	w.log.Info(ctx, "inpol checked", "proceedings", len(current), "changes", len(changes))
	return changes, nil
}

// Diff returns a change for every current proceeding that has no previous
// snapshot or whose status differs from it, in the order of current.
func Diff(previous map[string]models.Proceeding, current []models.Proceeding) []models.ProceedingChange {
	var out []models.ProceedingChange
	for _, p := range current {
		prev, seen := previous[p.ID]
		switch {
		case !seen:
			out = append(out, models.ProceedingChange{Proceeding: p})
		case prev.Status != p.Status:
			status := prev.Status
			out = append(out, models.ProceedingChange{Proceeding: p, PreviousStatus: &status})
		}
	}
	return out
}
