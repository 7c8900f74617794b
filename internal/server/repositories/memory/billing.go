package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/repositories/reminders"
)

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *models.Payment) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Clients[p.ClientID]; !ok {
		return nil, fmt.Errorf("db error: client %d: %w", p.ClientID, common.ErrorNotFound)
	}
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.s.Payments[p.ID] = &cp
	return p, nil
}

func (r paymentRepo) Update(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Payments[p.ID]; !ok {
		return common.ErrorNotFound
	}
	p.UpdatedAt = r.s.now()
	cp := *p
	r.s.Payments[p.ID] = &cp
	return nil
}

func (r paymentRepo) GetByID(_ context.Context, id int64) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.Payments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r paymentRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Payments[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.Payments, id)
	return nil
}

func (r paymentRepo) list(keep func(*models.Payment) bool) []*models.Payment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Payment
	for _, p := range r.s.Payments {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r paymentRepo) ListByClient(_ context.Context, clientID int64) ([]*models.Payment, error) {
	return r.list(func(p *models.Payment) bool { return p.ClientID == clientID }), nil
}

func (r paymentRepo) ListDueWithoutReminder(_ context.Context, day time.Time) ([]*models.Payment, error) {
	return r.list(func(p *models.Payment) bool {
		if p.Status != models.PaymentPending && p.Status != models.PaymentPartial {
			return false
		}
		if p.DueDate == nil || !p.DueDate.Equal(day) {
			return false
		}
		for _, rem := range r.s.Reminders {
			if rem.PaymentID != nil && *rem.PaymentID == p.ID {
				return false
			}
		}
		return true
	}), nil
}

func (r paymentRepo) RemapService(_ context.Context, clientID int64, from, to string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.Payments {
		if p.ClientID == clientID && p.ServiceDescription == from && p.Status == models.PaymentPending {
			p.ServiceDescription = to
			n++
		}
	}
	return n, nil
}

type reminderRepo struct{ s *Store }

func (r reminderRepo) find(match func(*models.Reminder) bool) *models.Reminder {
	for _, rem := range r.s.Reminders {
		if match(rem) {
			return rem
		}
	}
	return nil
}

func forPayment(id int64) func(*models.Reminder) bool {
	return func(rem *models.Reminder) bool { return rem.PaymentID != nil && *rem.PaymentID == id }
}

func forDocument(id int64) func(*models.Reminder) bool {
	return func(rem *models.Reminder) bool { return rem.DocumentID != nil && *rem.DocumentID == id }
}

func (r reminderRepo) insert(rem *models.Reminder) {
	rem.ID = r.s.nextID()
	rem.CreatedAt = r.s.now()
	cp := *rem
	r.s.Reminders[rem.ID] = &cp
}

func (r reminderRepo) CreateForDocument(_ context.Context, rem *models.Reminder) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rem.DocumentID == nil {
		return false, common.ErrorValidation
	}
	if r.find(forDocument(*rem.DocumentID)) != nil {
		return false, nil
	}
	r.insert(rem)
	return true, nil
}

func (r reminderRepo) CreateForPayment(_ context.Context, rem *models.Reminder) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rem.PaymentID == nil {
		return false, common.ErrorValidation
	}
	if r.find(forPayment(*rem.PaymentID)) != nil {
		return false, nil
	}
	r.insert(rem)
	return true, nil
}

func (r reminderRepo) UpsertForPayment(_ context.Context, rem *models.Reminder) (*models.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rem.PaymentID == nil {
		return nil, fmt.Errorf("upsert payment reminder: %w", common.ErrorValidation)
	}
	if existing := r.find(forPayment(*rem.PaymentID)); existing != nil {
		rem.ID = existing.ID
		rem.CreatedAt = existing.CreatedAt
		cp := *rem
		r.s.Reminders[rem.ID] = &cp
		return rem, nil
	}
	r.insert(rem)
	return rem, nil
}

func (r reminderRepo) DeleteForPayment(_ context.Context, paymentID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, rem := range r.s.Reminders {
		if forPayment(paymentID)(rem) {
			delete(r.s.Reminders, id)
			n++
		}
	}
	return n, nil
}

func (r reminderRepo) GetForPayment(_ context.Context, paymentID int64) (*models.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem := r.find(forPayment(paymentID))
	if rem == nil {
		return nil, common.ErrorNotFound
	}
	cp := *rem
	return &cp, nil
}

func (r reminderRepo) ListByClient(ctx context.Context, clientID int64) ([]*models.Reminder, error) {
	return r.list(func(rem *models.Reminder) bool { return rem.ClientID == clientID }), nil
}

func (r reminderRepo) ListActive(_ context.Context, f reminders.Filter) ([]*models.Reminder, error) {
	return r.list(func(rem *models.Reminder) bool {
		switch {
		case !rem.IsActive:
			return false
		case f.Type != "" && rem.Type != f.Type:
			return false
		case f.ClientID != 0 && rem.ClientID != f.ClientID:
			return false
		case f.From != nil && rem.DueDate.Before(*f.From):
			return false
		case f.To != nil && rem.DueDate.After(*f.To):
			return false
		}
		return true
	}), nil
}

func (r reminderRepo) list(keep func(*models.Reminder) bool) []*models.Reminder {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Reminder
	for _, rem := range r.s.Reminders {
		if keep(rem) {
			cp := *rem
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r reminderRepo) GetByID(_ context.Context, id int64) (*models.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem, ok := r.s.Reminders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rem
	return &cp, nil
}

func (r reminderRepo) Deactivate(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem, ok := r.s.Reminders[id]
	if !ok {
		return common.ErrorNotFound
	}
	rem.IsActive = false
	return nil
}

func (r reminderRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Reminders[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.Reminders, id)
	return nil
}
