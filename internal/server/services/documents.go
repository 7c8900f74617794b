package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/filestore"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/notify"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
	"github.com/legalize/backoffice/internal/timex"
)

// Upload is a file submitted for a client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	ExpiryDate  *time.Time
}

type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	files       filestore.Store
	notifier    *notify.Notifier
	audit       audit.Recorder
	clock       timex.Clock
	log         logging.Logger
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, files filestore.Store,
	notifier *notify.Notifier, rec audit.Recorder, clock timex.Clock, log logging.Logger) *DocumentService {
	return &DocumentService{
		db:          db,
		repomanager: m,
		files:       files,
		notifier:    notifier,
		audit:       rec,
		clock:       clock,
		log:         log.With("module", "documents"),
	}
}

// Add stores the file and creates the document record. The object is
// removed again when the record cannot be written.
func (s *DocumentService) Add(ctx context.Context, rc audit.RequestContext, clientID int64, docType string, up Upload) (*models.Document, error) {
	if _, err := s.repomanager.Clients(s.db).GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	key := filestore.NewKey(clientID, up.Filename, s.clock())
	if err := s.files.Put(ctx, key, up.Body, up.ContentType); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}
	d, err := s.repomanager.Documents(s.db).Create(ctx, &models.Document{
		ClientID:     clientID,
		DocumentType: docType,
		File:         key,
		ExpiryDate:   dayPtr(up.ExpiryDate),
	})
	if err != nil {
		if derr := s.files.Delete(ctx, key); derr != nil {
			s.log.Warn(ctx, "orphan file left", "key", key, "error", derr)
		}
		return nil, err
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "create", Entity: "document", EntityID: d.ID,
		Changes: []string{"document_type: " + docType}})
	return d, nil
}

// Delete removes the record and then its stored file.
func (s *DocumentService) Delete(ctx context.Context, rc audit.RequestContext, id int64) error {
	var file string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		docs := s.repomanager.Documents(tx)
		d, err := docs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		file = d.File
		return docs.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	if file != "" {
		if err := s.files.Delete(ctx, file); err != nil {
			s.log.Warn(ctx, "file not removed", "document_id", id, "key", file, "error", err)
		}
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "delete", Entity: "document", EntityID: id})
	return nil
}

// ToggleVerified flips the verified flag. A document that becomes verified
// triggers the missing-documents e-mail; emailsSent reports its outcome.
func (s *DocumentService) ToggleVerified(ctx context.Context, rc audit.RequestContext, id int64) (verified bool, emailsSent int, err error) {
	var d *models.Document
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		docs := s.repomanager.Documents(tx)
		var err error
		if d, err = docs.GetByID(ctx, id); err != nil {
			return err
		}
		d.Verified = !d.Verified
		return docs.Update(ctx, d)
	})
	if err != nil {
		return false, 0, err
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "update", Entity: "document", EntityID: id,
		Changes: []string{fmt.Sprintf("verified: %t", d.Verified)}})

	if d.Verified {
		emailsSent = s.sendMissing(ctx, d.ClientID)
	}
	return d.Verified, emailsSent, nil
}

// VerifyAll marks every unverified document of the client as verified.
func (s *DocumentService) VerifyAll(ctx context.Context, rc audit.RequestContext, clientID int64) (updated int64, emailsSent int, err error) {
	if _, err := s.repomanager.Clients(s.db).GetByID(ctx, clientID); err != nil {
		return 0, 0, err
	}
	updated, err = s.repomanager.Documents(s.db).SetVerifiedForClient(ctx, clientID, true)
	if err != nil {
		return 0, 0, err
	}
	if updated == 0 {
		return 0, 0, nil
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "verify_all", Entity: "client", EntityID: clientID,
		Changes: []string{fmt.Sprintf("verified documents: %d", updated)}})
	return updated, s.sendMissing(ctx, clientID), nil
}

// DownloadURL returns a short-lived link to the stored file.
func (s *DocumentService) DownloadURL(ctx context.Context, id int64) (string, error) {
	d, err := s.repomanager.Documents(s.db).GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.files.PresignGet(ctx, d.File)
}

func (s *DocumentService) sendMissing(ctx context.Context, clientID int64) int {
	c, err := s.repomanager.Clients(s.db).GetByID(ctx, clientID)
	if err != nil {
		s.log.Warn(ctx, "missing documents e-mail skipped", "client_id", clientID, "error", err)
		return 0
	}
	checklist, err := checklistFor(ctx, s.repomanager, s.db, c)
	if err != nil {
		s.log.Warn(ctx, "missing documents e-mail skipped", "client_id", clientID, "error", err)
		return 0
	}
	return s.notifier.MissingDocuments(ctx, c, checklist)
}
