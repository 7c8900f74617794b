package services

import (
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/shopspring/decimal"
)

var servicePrices = map[string]decimal.Decimal{
	models.ServiceStudy:        decimal.NewFromInt(1400),
	models.ServiceWork:         decimal.NewFromInt(1800),
	models.ServiceConsultation: decimal.NewFromInt(180),
}

var serviceLabels = map[string]string{
	models.ServiceWork:         "Work",
	models.ServiceStudy:        "Study",
	models.ServiceConsultation: "Consultation",
}

// ServicePrice is the list price of a service, zero for unknown codes.
func ServicePrice(service string) decimal.Decimal {
	if p, ok := servicePrices[service]; ok {
		return p
	}
	return decimal.Zero
}

// ServiceLabel is the display name used in reminder titles.
func ServiceLabel(service string) string {
	if l, ok := serviceLabels[service]; ok {
		return l
	}
	return service
}

// ServiceForPurpose maps an application purpose to the service billed for it.
func ServiceForPurpose(purpose string) string {
	switch purpose {
	case models.PurposeWork:
		return models.ServiceWork
	case models.PurposeStudy:
		return models.ServiceStudy
	default:
		return models.ServiceConsultation
	}
}

// DeriveStatus computes the status implied by the amounts: paid when
// covered, partial when something was paid, pending otherwise.
func DeriveStatus(total, paid decimal.Decimal) models.PaymentStatus {
	switch {
	case total.IsPositive() && paid.GreaterThanOrEqual(total):
		return models.PaymentPaid
	case paid.IsPositive():
		return models.PaymentPartial
	default:
		return models.PaymentPending
	}
}
