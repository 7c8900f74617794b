package memory

import (
	"context"
	"maps"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/models"
)

type snapshotRepo struct{ s *Store }

func (r snapshotRepo) LoadAll(context.Context) (map[string]models.Proceeding, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return maps.Clone(r.s.Snapshots), nil
}

func (r snapshotRepo) SaveSnapshot(_ context.Context, proceedings []models.Proceeding) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range proceedings {
		p.UpdatedAt = r.s.now()
		r.s.Snapshots[p.ID] = p
	}
	return nil
}

type inpolAccountRepo struct{ s *Store }

func (r inpolAccountRepo) Active(context.Context) (*models.InpolAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *models.InpolAccount
	for _, a := range r.s.InpolAccounts {
		if !a.IsActive {
			continue
		}
		if best == nil || a.UpdatedAt.After(best.UpdatedAt) ||
			(a.UpdatedAt.Equal(best.UpdatedAt) && a.ID > best.ID) {
			best = a
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	cp := *best
	return &cp, nil
}

func (r inpolAccountRepo) Create(_ context.Context, a *models.InpolAccount) (*models.InpolAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.nextID()
	a.UpdatedAt = r.s.now()
	cp := *a
	r.s.InpolAccounts[a.ID] = &cp
	return a, nil
}
