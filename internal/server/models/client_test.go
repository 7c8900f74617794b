package models

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/legalize/backoffice/internal/cryptox"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestNormalizeCaseNumber(t *testing.T) {
	assert.Equal(t, "WSC-123", NormalizeCaseNumber(" wsc - 123 "))
	assert.Equal(t, "AB123", NormalizeCaseNumber("ab 123"))
	assert.Equal(t, "", NormalizeCaseNumber("   "))
}

func TestHashCaseNumber(t *testing.T) {
	h1 := HashCaseNumber("WSC123")
	h2 := HashCaseNumber("wsc 123")
	require.NotNil(t, h1)
	require.NotNil(t, h2)
	assert.Equal(t, *h1, *h2)
	assert.Nil(t, HashCaseNumber(""))
	assert.Nil(t, HashCaseNumber(" \t"))
}

func TestRefreshCaseNumberHash_Stability(t *testing.T) {
	c := &Client{CaseNumber: cryptox.NewSecret("ab 123")}
	c.RefreshCaseNumberHash()
	require.NotNil(t, c.CaseNumberHash)
	assert.Equal(t, sha("AB123"), *c.CaseNumberHash)

	c.CaseNumber = cryptox.NewSecret("AB-123")
	c.RefreshCaseNumberHash()
	assert.Equal(t, sha("AB-123"), *c.CaseNumberHash)

	c.CaseNumber = cryptox.NewSecret("")
	c.RefreshCaseNumberHash()
	assert.Nil(t, c.CaseNumberHash)
}

func TestClientDefaultsAndLanguage(t *testing.T) {
	c := &Client{FirstName: "Jan", LastName: "Kowalski"}
	c.ApplyDefaults()
	assert.Equal(t, PurposeStudy, c.ApplicationPurpose)
	assert.Equal(t, "pl", c.Language)
	assert.Equal(t, ClientStatusNew, c.Status)
	assert.Equal(t, "Jan Kowalski", c.FullName())

	c.Language = "ru"
	assert.Equal(t, "ru", c.PreferredLanguage())
	assert.True(t, ClientStatusApproved.Valid())
	assert.False(t, ClientStatus("archived").Valid())
}

func TestPaymentDerived(t *testing.T) {
	due := time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)
	p := &Payment{
		TotalAmount: decimal.RequireFromString("1800.00"),
		AmountPaid:  decimal.RequireFromString("900.50"),
		Status:      PaymentPartial,
		DueDate:     &due,
	}
	assert.True(t, p.AmountDue().Equal(decimal.RequireFromString("899.50")))
	assert.False(t, p.IsFullyPaid())
	assert.True(t, p.NeedsReminder())

	p.Status = PaymentPending
	assert.False(t, p.NeedsReminder())

	p.Status = PaymentPartial
	p.DueDate = nil
	assert.False(t, p.NeedsReminder())

	p.AmountPaid = p.TotalAmount
	assert.True(t, p.IsFullyPaid())
	assert.False(t, PaymentStatus("overdue").Valid())
}

func TestRequirementCustomNameFor(t *testing.T) {
	r := &DocumentRequirement{CustomNamePL: "Paszport RP", CustomNameEN: "Passport EN"}
	assert.Equal(t, "Paszport RP", r.CustomNameFor("pl"))
	assert.Equal(t, "Passport EN", r.CustomNameFor("en"))
	assert.Equal(t, "", r.CustomNameFor("ru"))
	assert.Equal(t, "", r.CustomNameFor("de"))
}
