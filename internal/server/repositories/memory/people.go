package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/models"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.Users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = r.s.nextID()
	u.CreatedAt = r.s.now()
	cp := *u
	r.s.Users[u.ID] = &cp
	return u, nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.Users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.Users, id)
	return nil
}

type clientRepo struct{ s *Store }

func (r clientRepo) emailTaken(email string, except int64) bool {
	for id, c := range r.s.Clients {
		if id != except && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

func (r clientRepo) Create(_ context.Context, c *models.Client) (*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ApplyDefaults()
	c.RefreshCaseNumberHash()
	if r.emailTaken(c.Email, 0) {
		return nil, common.ErrorAlreadyExists
	}
	c.ID = r.s.nextID()
	c.CreatedAt = r.s.now()
	cp := *c
	r.s.Clients[c.ID] = &cp
	return c, nil
}

func (r clientRepo) Update(_ context.Context, c *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.RefreshCaseNumberHash()
	if _, ok := r.s.Clients[c.ID]; !ok {
		return common.ErrorNotFound
	}
	if r.emailTaken(c.Email, c.ID) {
		return common.ErrorAlreadyExists
	}
	cp := *c
	r.s.Clients[c.ID] = &cp
	return nil
}

func (r clientRepo) GetByID(_ context.Context, id int64) (*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.Clients[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r clientRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Clients[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.Clients, id)
	for did, d := range r.s.Documents {
		if d.ClientID == id {
			delete(r.s.Documents, did)
		}
	}
	for pid, p := range r.s.Payments {
		if p.ClientID == id {
			delete(r.s.Payments, pid)
		}
	}
	for rid, rem := range r.s.Reminders {
		if rem.ClientID == id {
			delete(r.s.Reminders, rid)
		}
	}
	return nil
}

func (r clientRepo) filter(keep func(*models.Client) bool) []*models.Client {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Client
	for _, c := range r.s.Clients {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r clientRepo) List(context.Context) ([]*models.Client, error) {
	return r.filter(func(*models.Client) bool { return true }), nil
}

func (r clientRepo) FindByCaseNumber(_ context.Context, caseNumber string) ([]*models.Client, error) {
	h := models.HashCaseNumber(caseNumber)
	if h == nil {
		return nil, nil
	}
	return r.filter(func(c *models.Client) bool {
		return c.CaseNumberHash != nil && *c.CaseNumberHash == *h
	}), nil
}

func (r clientRepo) FindByEmail(_ context.Context, email string) ([]*models.Client, error) {
	if email == "" {
		return nil, nil
	}
	return r.filter(func(c *models.Client) bool { return strings.EqualFold(c.Email, email) }), nil
}
