package reminders

import (
	"context"

	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/models"
	remindersrepo "github.com/legalize/backoffice/internal/server/repositories/reminders"
)

// List returns active reminders matching f.
func (s *Scheduler) List(ctx context.Context, f remindersrepo.Filter) ([]*models.Reminder, error) {
	return s.repomanager.Reminders(s.db).ListActive(ctx, f)
}

// Complete marks a reminder as done.
func (s *Scheduler) Complete(ctx context.Context, rc audit.RequestContext, id int64) error {
	if err := s.repomanager.Reminders(s.db).Deactivate(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "deactivate", Entity: "reminder", EntityID: id})
	return nil
}

func (s *Scheduler) Remove(ctx context.Context, rc audit.RequestContext, id int64) error {
	if err := s.repomanager.Reminders(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "delete", Entity: "reminder", EntityID: id})
	return nil
}

// SendExpiring mails the client about the documents behind their active
// document reminders and returns the number of accepted recipients.
func (s *Scheduler) SendExpiring(ctx context.Context, clientID int64) (int, error) {
	c, err := s.repomanager.Clients(s.db).GetByID(ctx, clientID)
	if err != nil {
		return 0, err
	}
	rems, err := s.List(ctx, remindersrepo.Filter{Type: models.ReminderDocument, ClientID: clientID})
	if err != nil {
		return 0, err
	}
	all, err := s.repomanager.Documents(s.db).ListByClient(ctx, clientID)
	if err != nil {
		return 0, err
	}
	byID := make(map[int64]*models.Document, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}
	var expiring []*models.Document
	for _, r := range rems {
		if r.DocumentID == nil {
			continue
		}
		if d := byID[*r.DocumentID]; d != nil && d.ExpiryDate != nil {
			expiring = append(expiring, d)
		}
	}
	if len(expiring) == 0 {
		return 0, nil
	}
	checklist, err := catalog.New(s.repomanager.Requirements(s.db)).Checklist(ctx, c, all)
	if err != nil {
		return 0, err
	}
	return s.notifier.ExpiringDocuments(ctx, c, expiring, all, checklist), nil
}
