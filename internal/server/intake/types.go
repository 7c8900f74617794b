package intake

import (
	"fmt"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/summons"
)

// Proposal is what the parser found in an awaiting summons. Dates come in
// ISO form for form fields and in display form for people.
type Proposal struct {
	DocumentID              int64        `json:"document_id"`
	ClientID                int64        `json:"client_id"`
	Kind                    summons.Kind `json:"kind"`
	CaseNumber              string       `json:"case_number"`
	FirstName               string       `json:"first_name"`
	LastName                string       `json:"last_name"`
	FingerprintsDate        string       `json:"fingerprints_date"`
	FingerprintsDateDisplay string       `json:"fingerprints_date_display"`
	FingerprintsTime        string       `json:"fingerprints_time"`
	FingerprintsLocation    string       `json:"fingerprints_location"`
	DecisionDate            string       `json:"decision_date"`
	DecisionDateDisplay     string       `json:"decision_date_display"`
	RequiredDocuments       []string     `json:"required_documents"`
}

func newProposal(d *models.Document, p summons.ParsedSummons) *Proposal {
	first, last := SplitName(p.FullName)
	pr := &Proposal{
		DocumentID:           d.ID,
		ClientID:             d.ClientID,
		Kind:                 p.Kind,
		CaseNumber:           p.CaseNumber,
		FirstName:            first,
		LastName:             last,
		FingerprintsTime:     p.FingerprintsTime,
		FingerprintsLocation: p.FingerprintsLocation,
		RequiredDocuments:    append([]string{}, p.RequiredDocuments...),
	}
	if p.FingerprintsDate != nil {
		pr.FingerprintsDate = p.FingerprintsDate.Format(common.ISODate)
		pr.FingerprintsDateDisplay = p.FingerprintsDate.Format(common.DisplayDate)
	}
	if p.DecisionDate != nil {
		pr.DecisionDate = p.DecisionDate.Format(common.ISODate)
		pr.DecisionDateDisplay = p.DecisionDate.Format(common.DisplayDate)
	}
	return pr
}

// RequiredDocumentLabels translates the proposal's document codes.
func (p *Proposal) RequiredDocumentLabels(lang string) []string {
	out := make([]string, 0, len(p.RequiredDocuments))
	for _, code := range p.RequiredDocuments {
		out = append(out, catalog.LabelFor(code, lang))
	}
	return out
}

// ConfirmInput holds the fields an operator approved. Empty values leave
// the client untouched.
type ConfirmInput struct {
	FirstName            string `json:"first_name" validate:"max=255"`
	LastName             string `json:"last_name" validate:"max=255"`
	CaseNumber           string `json:"case_number" validate:"max=100"`
	FingerprintsDate     string `json:"fingerprints_date" validate:"omitempty,datetime=2006-01-02"`
	FingerprintsTime     string `json:"fingerprints_time" validate:"omitempty,datetime=15:04"`
	FingerprintsLocation string `json:"fingerprints_location" validate:"max=255"`
	DecisionDate         string `json:"decision_date" validate:"omitempty,datetime=2006-01-02"`
}

func (in ConfirmInput) fields() (fields, error) {
	f := fields{
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		CaseNumber:           in.CaseNumber,
		FingerprintsTime:     in.FingerprintsTime,
		FingerprintsLocation: in.FingerprintsLocation,
	}
	var err error
	if f.FingerprintsDate, err = isoDate(in.FingerprintsDate); err != nil {
		return f, err
	}
	if f.DecisionDate, err = isoDate(in.DecisionDate); err != nil {
		return f, err
	}
	return f, nil
}

func isoDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(common.ISODate, s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", common.ErrorValidation, s)
	}
	return &t, nil
}

// Result summarizes a confirmation or a one-step apply.
type Result struct {
	DocumentID           int64    `json:"document_id"`
	ClientID             int64    `json:"client_id"`
	AutoUpdates          []string `json:"auto_updates"`
	RequiredDocuments    []string `json:"required_documents"`
	MissingDocumentsSent bool     `json:"missing_documents_sent"`
	AppointmentSent      bool     `json:"appointment_sent"`
}
