package common

// Date layouts shared by parsers, notifications and API payloads.
const (
	ISODate     = "2006-01-02"
	DisplayDate = "02.01.2006"
)

// DefaultLanguage is used when a client has no preferred language set.
const DefaultLanguage = "pl"

// SupportedLanguages lists the languages the catalog and templates know about.
var SupportedLanguages = []string{"pl", "en", "ru"}

// LanguageOrDefault trims a language code to its two-letter form and falls
// back to DefaultLanguage when it is empty or unsupported.
func LanguageOrDefault(lang string) string {
	if len(lang) > 2 {
		lang = lang[:2]
	}
	for _, l := range SupportedLanguages {
		if l == lang {
			return l
		}
	}
	return DefaultLanguage
}
