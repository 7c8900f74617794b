package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// aliases lists legacy labels that also count as "default" for a code.
var aliases = map[DocumentType][]string{
	Photos:              {"Фотографии", "Zdjęcia", "Photos", "4 zdjęcia"},
	PaymentConfirmation: {"Opłata skarbowa", "Dowód wpłaty"},
	Passport:            {"Paszport zagraniczny", "Kopia paszportu"},
	EnrollmentCertificate: {
		"Справка о зачислении", "Zaświadczenie z uczelni",
	},
	TuitionFeeProof:    {"Справка об оплате обучения"},
	HealthInsurance:    {"Медицинская страховка", "Ubezpieczenie zdrowotne", "Health insurance"},
	AddressProof:       {"Подтверждение адреса", "Umowa najmu"},
	FinancialProof:     {"Подтверждение финансов"},
	EmploymentContract: {"Трудовой договор", "Umowa o pracę"},
	PitProof:           {"PIT-37 / Zaświadczenie o niezaleganiu"},
}

// NormalizeLabel makes labels comparable regardless of Unicode composition,
// spacing and letter case.
func NormalizeLabel(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return folder.String(s)
}

// IsDefaultLabel reports whether label equals, after normalization, any
// translation of the standard code or one of its aliases.
func IsDefaultLabel(code, label string) bool {
	t := DocumentType(code)
	tr, ok := labels[t]
	if !ok {
		return false
	}
	want := NormalizeLabel(label)
	if want == "" {
		return false
	}
	for _, l := range tr {
		if NormalizeLabel(l) == want {
			return true
		}
	}
	for _, a := range aliases[t] {
		if NormalizeLabel(a) == want {
			return true
		}
	}
	return false
}
