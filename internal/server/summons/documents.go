package summons

import (
	"regexp"
	"sort"

	"github.com/legalize/backoffice/internal/server/catalog"
)

// documentKeywords maps catalog codes to the phrases an office uses when
// asking for them. Matching is done on the raw text, case-insensitively.
var documentKeywords = map[catalog.DocumentType][]string{
	catalog.Photos:                {`\b(?:4|cztery)\s+(?:zdjęci|fotografi)`, `zdjęci\pL*\s+biometryczn`, `fotografi\pL*\s+biometryczn`, `fotografie`},
	catalog.Passport:              {`paszport`, `dokument\pL*\s+podróży`},
	catalog.PaymentConfirmation:   {`opłat\pL*\s+skarbow`, `dowód\s+wpłaty`, `potwierdzeni\pL*\s+(?:wpłaty|opłaty|przelewu)`, `\b[34]40\s*zł`},
	catalog.HealthInsurance:       {`ubezpieczeni\pL*\s+zdrowotn`, `polis\pL*\s+ubezpiecz`, `\bnfz\b`},
	catalog.AddressProof:          {`umow\pL*\s+najmu`, `koszt\pL*\s+zamieszkania`, `akt\pL*\s+własności`, `tytuł\pL*\s+prawn\pL*\s+do\s+lokalu`, `zameldowani`},
	catalog.FinancialProof:        {`środk\pL*\s+finansow`, `wyciąg\pL*\s+(?:z\s+konta|bankow)`, `stabiln\pL*\s+i\s+regularn\pL*\s+źródł`},
	catalog.EnrollmentCertificate: {`zaświadczeni\pL*\s+z\s+uczelni`, `kontynuacji\s+studiów`, `przyjęci\pL*\s+na\s+studia`},
	catalog.TuitionFeeProof:       {`czesn`, `opłat\pL*\s+za\s+(?:naukę|studia)`},
	catalog.EmploymentContract:    {`umow\pL*\s+o\s+pracę`, `umow\pL*\s+zleceni`, `umow\pL*\s+o\s+dzieło`},
	catalog.WorkPermit:            {`oświadczeni\pL*\s+o\s+powierzeniu`, `zezwoleni\pL*\s+na\s+pracę\s+(?:typu|nr)`},
	catalog.ZalacznikNr1:          {`załącznik\pL*\s+nr\.?\s*1\b`},
	catalog.StarostaInfo:          {`informacj\pL*\s+starosty`},
	catalog.PitProof:              {`\bpit[- ]?37\b`, `zeznani\pL*\s+podatkow`},
}

var documentMatchers = compileKeywords(documentKeywords)

type documentMatcher struct {
	code     catalog.DocumentType
	patterns []*regexp.Regexp
}

func compileKeywords(src map[catalog.DocumentType][]string) []documentMatcher {
	out := make([]documentMatcher, 0, len(src))
	for code, phrases := range src {
		m := documentMatcher{code: code}
		for _, p := range phrases {
			m.patterns = append(m.patterns, regexp.MustCompile(`(?i)`+p))
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].code < out[j].code })
	return out
}

// RequiredDocuments lists the catalog codes whose keywords appear in text,
// sorted by code. Never nil.
func RequiredDocuments(text string) []string {
	found := []string{}
	for _, m := range documentMatchers {
		for _, re := range m.patterns {
			if re.MatchString(text) {
				found = append(found, string(m.code))
				break
			}
		}
	}
	return found
}
