// Package models holds the back-office domain records shared by repositories
// and services.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/cryptox"
)

type ClientStatus string

const (
	ClientStatusNew      ClientStatus = "new"
	ClientStatusPending  ClientStatus = "pending"
	ClientStatusApproved ClientStatus = "approved"
	ClientStatusRejected ClientStatus = "rejected"
)

// Standard application purposes. Any other slug is allowed and resolves
// against DB requirements only.
const (
	PurposeStudy  = "study"
	PurposeWork   = "work"
	PurposeFamily = "family"
)

// Client is a foreign national handled by the office. PassportNum and
// CaseNumber are decrypted on load and encrypted again by the repository.
type Client struct {
	ID                   int64
	UserID               *int64
	FirstName            string
	LastName             string
	Citizenship          string
	BirthDate            *time.Time
	Phone                string
	Email                string
	PassportNum          cryptox.Secret
	CaseNumber           cryptox.Secret
	CaseNumberHash       *string
	ApplicationPurpose   string
	BasisOfStay          string
	Language             string
	Status               ClientStatus
	CreatedAt            time.Time
	LegalBasisEndDate    *time.Time
	SubmissionDate       *time.Time
	EmployerPhone        string
	FingerprintsDate     *time.Time
	FingerprintsTime     string
	FingerprintsLocation string
	DecisionDate         *time.Time
	Notes                string
	HasChecklistAccess   bool
	InpolStatus          string
	InpolUpdatedAt       *time.Time
}

// NormalizeCaseNumber strips, upper-cases and removes whitespace.
func NormalizeCaseNumber(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// HashCaseNumber returns the hex SHA-256 of the normalized case number, or
// nil when nothing is left after normalization.
func HashCaseNumber(raw string) *string {
	n := NormalizeCaseNumber(raw)
	if n == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(n))
	h := hex.EncodeToString(sum[:])
	return &h
}

// RefreshCaseNumberHash recomputes CaseNumberHash from CaseNumber. Every
// client write calls it before touching the store.
func (c *Client) RefreshCaseNumberHash() {
	c.CaseNumberHash = HashCaseNumber(c.CaseNumber.Reveal())
}

func (c *Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// PreferredLanguage is the language used for labels and e-mails.
func (c *Client) PreferredLanguage() string {
	return common.LanguageOrDefault(c.Language)
}

// ApplyDefaults fills the values a freshly created client starts with.
func (c *Client) ApplyDefaults() {
	if c.ApplicationPurpose == "" {
		c.ApplicationPurpose = PurposeStudy
	}
	if c.Language == "" {
		c.Language = common.DefaultLanguage
	}
	if c.Status == "" {
		c.Status = ClientStatusNew
	}
}

func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusNew, ClientStatusPending, ClientStatusApproved, ClientStatusRejected:
		return true
	}
	return false
}
