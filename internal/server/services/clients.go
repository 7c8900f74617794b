// Package services contains the entity-level business logic of the back
// office: clients, their documents and payments. Every mutation runs inside a
// transaction and is reported to the audit recorder; e-mails are sent after
// commit and never fail the operation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/filestore"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/notify"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
)

// ClientService manages client records and the user account they may own.
type ClientService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	files       filestore.Store
	notifier    *notify.Notifier
	sync        PaymentSync
	audit       audit.Recorder
	log         logging.Logger
}

func NewClientService(db *sql.DB, m repomanager.RepositoryManager, files filestore.Store,
	notifier *notify.Notifier, sync PaymentSync, rec audit.Recorder, log logging.Logger) *ClientService {
	return &ClientService{
		db:          db,
		repomanager: m,
		files:       files,
		notifier:    notifier,
		sync:        sync,
		audit:       rec,
		log:         log.With("module", "clients"),
	}
}

// Create stores a new client and mails them the required-documents list.
func (s *ClientService) Create(ctx context.Context, rc audit.RequestContext, c *models.Client) (*models.Client, error) {
	if c.Status != "" && !c.Status.Valid() {
		return nil, fmt.Errorf("status %q: %w", c.Status, common.ErrorValidation)
	}
	created, err := s.repomanager.Clients(s.db).Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "create", Entity: "client", EntityID: created.ID})

	if _, err := s.SendRequiredDocuments(ctx, created.ID); err != nil {
		s.log.Warn(ctx, "required documents e-mail skipped", "client_id", created.ID, "error", err)
	}
	return created, nil
}

// Update writes c. When the application purpose changes, pending payments
// billed for the old purpose's service move to the new one and their
// reminders are re-synced in the same transaction.
func (s *ClientService) Update(ctx context.Context, rc audit.RequestContext, c *models.Client) error {
	if !c.Status.Valid() {
		return fmt.Errorf("status %q: %w", c.Status, common.ErrorValidation)
	}
	var changes []string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		clients := s.repomanager.Clients(tx)
		prev, err := clients.GetByID(ctx, c.ID)
		if err != nil {
			return err
		}
		if err := clients.Update(ctx, c); err != nil {
			return err
		}
		if prev.ApplicationPurpose == c.ApplicationPurpose {
			return nil
		}
		changes = append(changes, fmt.Sprintf("application_purpose: %s -> %s", prev.ApplicationPurpose, c.ApplicationPurpose))

		from, to := ServiceForPurpose(prev.ApplicationPurpose), ServiceForPurpose(c.ApplicationPurpose)
		if from == to {
			return nil
		}
		n, err := s.remapPayments(ctx, tx, c.ID, from, to)
		if err != nil {
			return err
		}
		if n > 0 {
			changes = append(changes, fmt.Sprintf("pending payments moved to %s: %d", to, n))
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "update", Entity: "client", EntityID: c.ID, Changes: changes})
	return nil
}

func (s *ClientService) remapPayments(ctx context.Context, tx dbx.DBTX, clientID int64, from, to string) (int64, error) {
	repo := s.repomanager.Payments(tx)
	all, err := repo.ListByClient(ctx, clientID)
	if err != nil {
		return 0, err
	}
	n, err := repo.RemapService(ctx, clientID, from, to)
	if err != nil || n == 0 {
		return n, err
	}
	for _, p := range all {
		if p.Status != models.PaymentPending || p.ServiceDescription != from {
			continue
		}
		p.ServiceDescription = to
		if err := s.sync.SyncPayment(ctx, tx, p); err != nil {
			return 0, fmt.Errorf("payment %d: %w", p.ID, err)
		}
	}
	return n, nil
}

func (s *ClientService) Get(ctx context.Context, id int64) (*models.Client, error) {
	return s.repomanager.Clients(s.db).GetByID(ctx, id)
}

func (s *ClientService) List(ctx context.Context) ([]*models.Client, error) {
	return s.repomanager.Clients(s.db).List(ctx)
}

// Delete removes the client with its documents, payments and reminders. The
// linked user account goes too unless it belongs to staff. Stored files are
// removed once the transaction has committed.
func (s *ClientService) Delete(ctx context.Context, rc audit.RequestContext, id int64) error {
	var files []string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.repomanager.Clients(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		docs, err := s.repomanager.Documents(tx).ListByClient(ctx, id)
		if err != nil {
			return err
		}
		for _, d := range docs {
			if d.File != "" {
				files = append(files, d.File)
			}
		}
		if err := s.repomanager.Clients(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.deleteOwnedUser(ctx, tx, c)
	})
	if err != nil {
		return err
	}

	for _, key := range files {
		if err := s.files.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "file not removed", "client_id", id, "key", key, "error", err)
		}
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "delete", Entity: "client", EntityID: id})
	return nil
}

func (s *ClientService) deleteOwnedUser(ctx context.Context, tx dbx.DBTX, c *models.Client) error {
	if c.UserID == nil {
		return nil
	}
	users := s.repomanager.Users(tx)
	u, err := users.GetByID(ctx, *c.UserID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.IsStaff {
		return nil
	}
	if err := users.Delete(ctx, u.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return nil
}

// Checklist returns the client's required-document checklist.
func (s *ClientService) Checklist(ctx context.Context, id int64) (*models.Client, []catalog.ChecklistEntry, error) {
	c, err := s.repomanager.Clients(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	checklist, err := checklistFor(ctx, s.repomanager, s.db, c)
	if err != nil {
		return nil, nil, err
	}
	return c, checklist, nil
}

// SendRequiredDocuments mails the client their checklist and returns the
// number of accepted recipients.
func (s *ClientService) SendRequiredDocuments(ctx context.Context, id int64) (int, error) {
	c, checklist, err := s.Checklist(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.notifier.RequiredDocuments(ctx, c, checklist), nil
}

// SendMissingDocuments mails the client the required documents still
// missing. Nothing is sent when the checklist is complete.
func (s *ClientService) SendMissingDocuments(ctx context.Context, id int64) (int, error) {
	c, checklist, err := s.Checklist(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.notifier.MissingDocuments(ctx, c, checklist), nil
}

// checklistFor loads the client's uploads and joins them with the catalog.
func checklistFor(ctx context.Context, m repomanager.RepositoryManager, db dbx.DBTX, c *models.Client) ([]catalog.ChecklistEntry, error) {
	docs, err := m.Documents(db).ListByClient(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return catalog.New(m.Requirements(db)).Checklist(ctx, c, docs)
}
