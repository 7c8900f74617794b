package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/models"
)

type documentRepo struct{ s *Store }

func (r documentRepo) Create(_ context.Context, d *models.Document) (*models.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Clients[d.ClientID]; !ok {
		return nil, fmt.Errorf("db error: client %d: %w", d.ClientID, common.ErrorNotFound)
	}
	d.ID = r.s.nextID()
	if d.UploadedAt.IsZero() {
		d.UploadedAt = r.s.now()
	}
	cp := *d
	r.s.Documents[d.ID] = &cp
	return d, nil
}

func (r documentRepo) GetByID(_ context.Context, id int64) (*models.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.Documents[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r documentRepo) Update(_ context.Context, d *models.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Documents[d.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *d
	r.s.Documents[d.ID] = &cp
	return nil
}

func (r documentRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Documents[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.Documents, id)
	for rid, rem := range r.s.Reminders {
		if rem.DocumentID != nil && *rem.DocumentID == id {
			delete(r.s.Reminders, rid)
		}
	}
	return nil
}

func (r documentRepo) filter(keep func(*models.Document) bool, less func(a, b *models.Document) bool) []*models.Document {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Document
	for _, d := range r.s.Documents {
		if keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byExpiry(a, b *models.Document) bool {
	if !a.ExpiryDate.Equal(*b.ExpiryDate) {
		return a.ExpiryDate.Before(*b.ExpiryDate)
	}
	return a.ID < b.ID
}

func within(t *time.Time, from, to time.Time) bool {
	return t != nil && !t.Before(from) && !t.After(to)
}

func (r documentRepo) hasReminder(id int64) bool {
	for _, rem := range r.s.Reminders {
		if rem.DocumentID != nil && *rem.DocumentID == id {
			return true
		}
	}
	return false
}

func (r documentRepo) ListByClient(_ context.Context, clientID int64) ([]*models.Document, error) {
	return r.filter(func(d *models.Document) bool { return d.ClientID == clientID },
		func(a, b *models.Document) bool {
			if !a.UploadedAt.Equal(b.UploadedAt) {
				return a.UploadedAt.Before(b.UploadedAt)
			}
			return a.ID < b.ID
		}), nil
}

func (r documentRepo) ListExpiringWithoutReminder(_ context.Context, from, to time.Time) ([]*models.Document, error) {
	return r.filter(func(d *models.Document) bool {
		return within(d.ExpiryDate, from, to) && !r.hasReminder(d.ID)
	}, byExpiry), nil
}

func (r documentRepo) ListExpiring(_ context.Context, from, to time.Time) ([]*models.Document, error) {
	return r.filter(func(d *models.Document) bool { return within(d.ExpiryDate, from, to) },
		func(a, b *models.Document) bool {
			if a.ClientID != b.ClientID {
				return a.ClientID < b.ClientID
			}
			return byExpiry(a, b)
		}), nil
}

func (r documentRepo) ListExpiredByClient(_ context.Context, clientID int64, day time.Time) ([]*models.Document, error) {
	return r.filter(func(d *models.Document) bool {
		return d.ClientID == clientID && d.ExpiryDate != nil && !d.ExpiryDate.After(day)
	}, byExpiry), nil
}

func (r documentRepo) SetVerifiedForClient(_ context.Context, clientID int64, verified bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, d := range r.s.Documents {
		if d.ClientID == clientID && d.Verified != verified {
			d.Verified = verified
			n++
		}
	}
	return n, nil
}

type requirementRepo struct{ s *Store }

func (r requirementRepo) list(keep func(*models.DocumentRequirement) bool) []*models.DocumentRequirement {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.DocumentRequirement
	for _, req := range r.s.Requirements {
		if keep(req) {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r requirementRepo) ListByPurpose(_ context.Context, purpose string) ([]*models.DocumentRequirement, error) {
	return r.list(func(req *models.DocumentRequirement) bool { return req.ApplicationPurpose == purpose }), nil
}

func (r requirementRepo) Upsert(_ context.Context, req *models.DocumentRequirement) (*models.DocumentRequirement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.Requirements {
		if existing.ApplicationPurpose == req.ApplicationPurpose && existing.DocumentType == req.DocumentType {
			req.ID = id
			cp := *req
			r.s.Requirements[id] = &cp
			return req, nil
		}
	}
	req.ID = r.s.nextID()
	cp := *req
	r.s.Requirements[req.ID] = &cp
	return req, nil
}

func (r requirementRepo) SetRequired(_ context.Context, purpose, documentType string, required bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.Requirements {
		if req.ApplicationPurpose == purpose && req.DocumentType == documentType {
			req.IsRequired = required
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r requirementRepo) ListWithCustomName(context.Context) ([]*models.DocumentRequirement, error) {
	out := r.list(func(req *models.DocumentRequirement) bool { return req.CustomName != "" })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r requirementRepo) ClearCustomName(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req, ok := r.s.Requirements[id]; ok {
		req.CustomName = ""
	}
	return nil
}
