// Package intake applies parsed summons letters to client records.
//
// A summons document moves through two states. Propose stores the upload as
// awaiting confirmation and returns what the parser found; Confirm writes the
// operator-approved fields to the client and clears the flag; Abandon drops an
// awaiting document. Apply is the one-step path that stores and applies a
// summons without an operator in the loop.
package intake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/cryptox"
	"github.com/legalize/backoffice/internal/dbx"
	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/filestore"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/notify"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
	"github.com/legalize/backoffice/internal/server/services"
	"github.com/legalize/backoffice/internal/server/summons"
	"github.com/legalize/backoffice/internal/timex"
)

// Parser reads a summons file from a local path.
type Parser interface {
	Parse(ctx context.Context, path string) summons.ParsedSummons
}

type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	files       filestore.Store
	parser      Parser
	notifier    *notify.Notifier
	audit       audit.Recorder
	validate    *validator.Validate
	clock       timex.Clock
	log         logging.Logger
}

func NewService(db *sql.DB, m repomanager.RepositoryManager, files filestore.Store, parser Parser,
	notifier *notify.Notifier, rec audit.Recorder, clock timex.Clock, log logging.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:          db,
		repomanager: m,
		files:       files,
		parser:      parser,
		notifier:    notifier,
		audit:       rec,
		validate:    validator.New(),
		clock:       clock,
		log:         log.With("module", "intake"),
	}
}

// Propose stores a summons upload as awaiting confirmation and returns the
// fields found in it. When nothing usable was parsed the proposal carries
// only the document id and the error wraps common.ErrNothingParsed.
func (s *Service) Propose(ctx context.Context, rc audit.RequestContext, clientID int64, up services.Upload) (*Proposal, error) {
	docs, err := s.repomanager.Documents(s.db).ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repomanager.Clients(s.db).GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.IsSummons() && d.AwaitingConfirmation {
			return nil, fmt.Errorf("client %d has summons %d awaiting confirmation: %w",
				clientID, d.ID, common.ErrorAlreadyExists)
		}
	}

	d, err := s.store(ctx, clientID, up, true)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "propose", Entity: "document", EntityID: d.ID})

	parsed, err := s.parse(ctx, d.File)
	if err != nil {
		return &Proposal{DocumentID: d.ID, ClientID: clientID}, err
	}
	if !parsed.HasKeyField() {
		s.log.Info(ctx, "summons yielded nothing", "document_id", d.ID, "error", parsed.Error)
		return &Proposal{DocumentID: d.ID, ClientID: clientID}, fmt.Errorf("document %d: %w", d.ID, common.ErrNothingParsed)
	}
	return newProposal(d, parsed), nil
}

// Confirm writes the operator-approved fields to the document's client and
// marks the document confirmed. Confirming a document a second time with the
// same values changes nothing and sends nothing.
func (s *Service) Confirm(ctx context.Context, rc audit.RequestContext, documentID int64, in ConfirmInput) (*Result, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	f, err := in.fields()
	if err != nil {
		return nil, err
	}

	var (
		d         *models.Document
		c         *models.Client
		changes   []string
		confirmed bool
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if d, err = s.repomanager.Documents(tx).GetByID(ctx, documentID); err != nil {
			return err
		}
		if !d.IsSummons() {
			return fmt.Errorf("document %d (%s): %w", d.ID, d.DocumentType, common.ErrNotSummons)
		}
		if c, err = s.repomanager.Clients(tx).GetByID(ctx, d.ClientID); err != nil {
			return err
		}
		changes = applyFields(c, f, false)
		if len(changes) > 0 {
			if err := s.repomanager.Clients(tx).Update(ctx, c); err != nil {
				return err
			}
		}
		if d.AwaitingConfirmation {
			d.AwaitingConfirmation = false
			confirmed = true
			return s.repomanager.Documents(tx).Update(ctx, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{DocumentID: d.ID, ClientID: c.ID, AutoUpdates: nonNil(changes), RequiredDocuments: []string{}}
	if !confirmed && len(changes) == 0 {
		return res, nil
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "confirm", Entity: "client", EntityID: c.ID, Changes: changes})
	s.finish(ctx, c, d, res)
	return res, nil
}

// Apply stores a summons and writes the parsed fields to the client in one
// step. Parsed names only fill empty name fields.
func (s *Service) Apply(ctx context.Context, rc audit.RequestContext, clientID int64, up services.Upload) (*Result, error) {
	if _, err := s.repomanager.Clients(s.db).GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	d, err := s.store(ctx, clientID, up, false)
	if err != nil {
		return nil, err
	}
	parsed, err := s.parse(ctx, d.File)
	if err != nil {
		s.log.Warn(ctx, "summons not parsed", "document_id", d.ID, "error", err)
	}

	var (
		c       *models.Client
		changes []string
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if c, err = s.repomanager.Clients(tx).GetByID(ctx, clientID); err != nil {
			return err
		}
		changes = applyFields(c, parsedFields(parsed), true)
		if len(changes) == 0 {
			return nil
		}
		return s.repomanager.Clients(tx).Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	res := &Result{DocumentID: d.ID, ClientID: c.ID, AutoUpdates: nonNil(changes), RequiredDocuments: []string{}}
	s.audit.Record(ctx, rc, audit.Event{Action: "apply", Entity: "client", EntityID: c.ID, Changes: changes})
	s.notifyClient(ctx, c, parsed, res)
	return res, nil
}

// Abandon deletes a summons that is still awaiting confirmation together
// with its stored file.
func (s *Service) Abandon(ctx context.Context, rc audit.RequestContext, documentID int64) error {
	var file string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		docs := s.repomanager.Documents(tx)
		d, err := docs.GetByID(ctx, documentID)
		if err != nil {
			return err
		}
		if !d.IsSummons() {
			return fmt.Errorf("document %d: %w", d.ID, common.ErrNotSummons)
		}
		if !d.AwaitingConfirmation {
			return fmt.Errorf("document %d: %w", d.ID, common.ErrNotAwaiting)
		}
		file = d.File
		return docs.Delete(ctx, d.ID)
	})
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, file); err != nil {
		s.log.Warn(ctx, "file not removed", "document_id", documentID, "key", file, "error", err)
	}
	s.audit.Record(ctx, rc, audit.Event{Action: "abandon", Entity: "document", EntityID: documentID})
	return nil
}

func (s *Service) store(ctx context.Context, clientID int64, up services.Upload, awaiting bool) (*models.Document, error) {
	key := filestore.NewKey(clientID, up.Filename, s.clock())
	if err := s.files.Put(ctx, key, up.Body, up.ContentType); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}
	d, err := s.repomanager.Documents(s.db).Create(ctx, &models.Document{
		ClientID:             clientID,
		DocumentType:         models.DocumentTypeSummons,
		File:                 key,
		AwaitingConfirmation: awaiting,
	})
	if err != nil {
		if derr := s.files.Delete(ctx, key); derr != nil {
			s.log.Warn(ctx, "orphan file left", "key", key, "error", derr)
		}
		return nil, err
	}
	return d, nil
}

// parse runs the parser over a local copy of the stored file.
func (s *Service) parse(ctx context.Context, key string) (summons.ParsedSummons, error) {
	path, cleanup, err := filestore.CopyToTemp(ctx, s.files, key)
	if err != nil {
		return summons.ParsedSummons{Error: summons.ErrorNoText, RequiredDocuments: []string{}}, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer cleanup()
	return s.parser.Parse(ctx, path), nil
}

// finish re-reads the summons for the documents it asks for and sends the
// client e-mails of a confirmation.
func (s *Service) finish(ctx context.Context, c *models.Client, d *models.Document, res *Result) {
	parsed, err := s.parse(ctx, d.File)
	if err != nil {
		s.log.Warn(ctx, "summons not re-parsed", "document_id", d.ID, "error", err)
	}
	s.notifyClient(ctx, c, parsed, res)
}

func (s *Service) notifyClient(ctx context.Context, c *models.Client, parsed summons.ParsedSummons, res *Result) {
	lang := c.PreferredLanguage()
	res.RequiredDocuments = make([]string, 0, len(parsed.RequiredDocuments))
	for _, code := range parsed.RequiredDocuments {
		res.RequiredDocuments = append(res.RequiredDocuments, catalog.LabelFor(code, lang))
	}

	docs, err := s.repomanager.Documents(s.db).ListByClient(ctx, c.ID)
	if err == nil {
		var checklist []catalog.ChecklistEntry
		checklist, err = catalog.New(s.repomanager.Requirements(s.db)).Checklist(ctx, c, docs)
		if err == nil {
			res.MissingDocumentsSent = s.notifier.MissingDocuments(ctx, c, checklist) > 0
		}
	}
	if err != nil {
		s.log.Warn(ctx, "missing documents e-mail skipped", "client_id", c.ID, "error", err)
	}
	if c.FingerprintsDate != nil {
		res.AppointmentSent = s.notifier.Appointment(ctx, c) > 0
	}
}

// fields are the client attributes a summons can set.
type fields struct {
	FirstName            string
	LastName             string
	CaseNumber           string
	FingerprintsDate     *time.Time
	FingerprintsTime     string
	FingerprintsLocation string
	DecisionDate         *time.Time
}

func parsedFields(p summons.ParsedSummons) fields {
	first, last := SplitName(p.FullName)
	return fields{
		FirstName:            first,
		LastName:             last,
		CaseNumber:           p.CaseNumber,
		FingerprintsDate:     p.FingerprintsDate,
		FingerprintsTime:     p.FingerprintsTime,
		FingerprintsLocation: p.FingerprintsLocation,
		DecisionDate:         p.DecisionDate,
	}
}

// applyFields copies every non-empty value of f that differs from the
// client's current one and returns a descriptor per change. With fillNames
// set, names are only written into empty fields.
func applyFields(c *models.Client, f fields, fillNames bool) []string {
	var changes []string
	setText := func(name string, dst *string, v string, fillOnly bool) {
		v = strings.TrimSpace(v)
		if v == "" || v == *dst || (fillOnly && *dst != "") {
			return
		}
		*dst = v
		changes = append(changes, name+": "+v)
	}
	setDate := func(name string, dst **time.Time, v *time.Time) {
		if v == nil || (*dst != nil && sameDay(**dst, *v)) {
			return
		}
		day := timex.Today(*v)
		*dst = &day
		changes = append(changes, name+": "+day.Format(common.DisplayDate))
	}

	setText("first_name", &c.FirstName, f.FirstName, fillNames)
	setText("last_name", &c.LastName, f.LastName, fillNames)

	caseNumber := c.CaseNumber.Reveal()
	setText("case_number", &caseNumber, f.CaseNumber, false)
	if caseNumber != c.CaseNumber.Reveal() {
		c.CaseNumber = cryptox.NewSecret(caseNumber)
	}

	setDate("fingerprints_date", &c.FingerprintsDate, f.FingerprintsDate)
	setText("fingerprints_time", &c.FingerprintsTime, f.FingerprintsTime, false)
	setText("fingerprints_location", &c.FingerprintsLocation, f.FingerprintsLocation, false)
	setDate("decision_date", &c.DecisionDate, f.DecisionDate)
	return changes
}

// SplitName splits a full name into the first word and the rest.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// IsRecoverable reports whether err leaves the document in a state the
// operator can continue from.
func IsRecoverable(err error) bool {
	return errors.Is(err, common.ErrNothingParsed)
}
