// Package catalog resolves the ordered list of documents a client has to
// submit for an application purpose, together with localized labels.
package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/legalize/backoffice/internal/common"
)

// DocumentType is a standard document code. Requirements and documents may
// also carry custom slugs that are not listed here.
type DocumentType string

const (
	Passport              DocumentType = "passport"
	Photos                DocumentType = "photos"
	PaymentConfirmation   DocumentType = "payment_confirmation"
	HealthInsurance       DocumentType = "health_insurance"
	AddressProof          DocumentType = "address_proof"
	FinancialProof        DocumentType = "financial_proof"
	EnrollmentCertificate DocumentType = "enrollment_certificate"
	TuitionFeeProof       DocumentType = "tuition_fee_proof"
	EmploymentContract    DocumentType = "employment_contract"
	WorkPermit            DocumentType = "work_permit"
	ZalacznikNr1          DocumentType = "zalacznik_nr_1"
	StarostaInfo          DocumentType = "starosta_info"
	PitProof              DocumentType = "pit_proof"
	Summons               DocumentType = "wezwanie"
	Decision              DocumentType = "decision"
	Other                 DocumentType = "other"
)

var labels = map[DocumentType]map[string]string{
	Passport: {"pl": "Paszport", "en": "Passport", "ru": "Паспорт"},
	Photos: {
		"pl": "4 zdjęcia (45x35 mm)", "en": "4 photos (45x35 mm)", "ru": "4 фотографии (45x35 мм)",
	},
	PaymentConfirmation: {"pl": "Potwierdzenie opłaty", "en": "Payment confirmation", "ru": "Подтверждение оплаты"},
	HealthInsurance: {
		"pl": "Polisa ubezpieczeniowa 30 000 EUR", "en": "Health insurance 30,000 EUR", "ru": "Страховой полис (30 000 евро)",
	},
	AddressProof: {
		"pl": "Dokumenty potwierdzające koszty zamieszkania (np. umowa najmu, rachunki)",
		"en": "Proof of address (rental agreement, bills)",
		"ru": "Документы, подтверждающие стоимость проживания (договор аренды, счета)",
	},
	FinancialProof: {
		"pl": "Środki finansowe na utrzymanie w Polsce",
		"en": "Financial means for maintenance in Poland",
		"ru": "Финансовые средства на содержание в Польше",
	},
	EnrollmentCertificate: {
		"pl": "Zaświadczenie z uczelni o przyjęciu lub kontynuacji studiów",
		"en": "University certificate of admission or continuation of studies",
		"ru": "Справка из вуза о приеме или продолжении учебы",
	},
	TuitionFeeProof: {
		"pl": "Dowód uiszczenia opłaty za naukę (czesne)",
		"en": "Proof of tuition payment",
		"ru": "Подтверждение оплаты за обучение",
	},
	EmploymentContract: {
		"pl": "Oryginały umów o pracę / zlecenia",
		"en": "Original employment contracts",
		"ru": "Оригиналы трудовых договоров",
	},
	WorkPermit: {
		"pl": "Oświadczenie o powierzeniu pracy lub zezwolenie na pracę",
		"en": "Work assignment statement or work permit",
		"ru": "Заявление о поручении работы или разрешение на работу",
	},
	ZalacznikNr1: {"pl": "Załącznik nr 1", "en": "Attachment No 1", "ru": "Приложение № 1"},
	StarostaInfo: {"pl": "Informacja starosty", "en": "Starost information", "ru": "Информация старосты"},
	PitProof: {
		"pl": "PIT-37 cudzoziemca z potwierdzeniem złożenia",
		"en": "PIT-37 foreigner with submission confirmation",
		"ru": "PIT-37 иностранца с подтверждением подачи",
	},
	Summons:  {"pl": "Wezwanie", "en": "Summons", "ru": "Вызов (Wezwanie)"},
	Decision: {"pl": "Decyzja", "en": "Decision", "ru": "Решение"},
	Other:    {"pl": "Inny dokument", "en": "Other document", "ru": "Другой документ"},
}

// IsStandard reports whether code is one of the DocumentType constants.
func IsStandard(code string) bool {
	_, ok := labels[DocumentType(code)]
	return ok
}

// Label returns the label of a standard type in lang, falling back to the
// default language. Unknown codes are humanized.
func (t DocumentType) Label(lang string) string {
	tr, ok := labels[t]
	if !ok {
		return Humanize(string(t))
	}
	if l, ok := tr[common.LanguageOrDefault(lang)]; ok {
		return l
	}
	return tr[common.DefaultLanguage]
}

// LabelFor is the label of code for display: the translated label of a
// standard type, or the raw code otherwise.
func LabelFor(code, lang string) string {
	if IsStandard(code) {
		return DocumentType(code).Label(lang)
	}
	return code
}

// Humanize turns a slug into a display label: "tax_clearance" becomes
// "Tax clearance".
func Humanize(code string) string {
	s := strings.TrimSpace(strings.ReplaceAll(code, "_", " "))
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
