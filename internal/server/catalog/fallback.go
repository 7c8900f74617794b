package catalog

import "github.com/legalize/backoffice/internal/server/models"

var studyDocs = []DocumentType{
	Photos, PaymentConfirmation, Passport, EnrollmentCertificate,
	TuitionFeeProof, HealthInsurance, AddressProof, FinancialProof,
}

var workDocs = []DocumentType{
	Photos, Passport, PaymentConfirmation, ZalacznikNr1,
	StarostaInfo, HealthInsurance, EmploymentContract, PitProof,
}

var familyDocs = []DocumentType{
	Photos, Passport, PaymentConfirmation, HealthInsurance, AddressProof, FinancialProof,
}

type fallbackKey struct {
	purpose string
	lang    string
}

// fallbacks is the compiled checklist. An empty lang matches any language.
var fallbacks = map[fallbackKey][]DocumentType{
	{models.PurposeStudy, ""}:  studyDocs,
	{models.PurposeWork, ""}:   workDocs,
	{models.PurposeFamily, ""}: familyDocs,
}

// Fallback returns the compiled list for (purpose, lang), then for purpose
// alone. Unknown purposes have no fallback.
func Fallback(purpose, lang string) []DocumentType {
	if docs, ok := fallbacks[fallbackKey{purpose, lang}]; ok {
		return docs
	}
	return fallbacks[fallbackKey{purpose, ""}]
}
