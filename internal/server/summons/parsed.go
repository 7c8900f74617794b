// Package summons turns a scanned summons letter (wezwanie) into a typed
// record: case number, appointment or decision dates, addressee and the
// documents the office asks for.
package summons

import "time"

// Kind classifies what a summons is about.
type Kind int

const (
	KindUnknown Kind = iota
	KindFingerprints
	KindDecision
	KindConfirmation
)

func (k Kind) String() string {
	switch k {
	case KindFingerprints:
		return "fingerprints"
	case KindDecision:
		return "decision"
	case KindConfirmation:
		return "confirmation"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ErrorNoText marks a record whose extracted text is blank.
const ErrorNoText = "no_text"

// ParsedSummons is the outcome of parsing one file. Optional fields are
// zero when not found.
type ParsedSummons struct {
	Text                 string     `json:"text"`
	Error                string     `json:"error,omitempty"`
	CaseNumber           string     `json:"case_number,omitempty"`
	FingerprintsDate     *time.Time `json:"fingerprints_date,omitempty"`
	FingerprintsTime     string     `json:"fingerprints_time,omitempty"`
	FingerprintsLocation string     `json:"fingerprints_location,omitempty"`
	DecisionDate         *time.Time `json:"decision_date,omitempty"`
	FullName             string     `json:"full_name,omitempty"`
	Kind                 Kind       `json:"kind"`
	RequiredDocuments    []string   `json:"required_documents"`
}

// HasKeyField reports whether any field worth proposing was found.
func (p *ParsedSummons) HasKeyField() bool {
	return p.CaseNumber != "" || p.FingerprintsDate != nil || p.DecisionDate != nil || p.FullName != ""
}
