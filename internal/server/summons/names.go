package summons

import (
	"regexp"
	"strings"
)

var salutationName = regexp.MustCompile(`\b(?:Pan/Pani|Pan/i|Pani|Pan)[ \t]+(\p{Lu}\p{Ll}+(?:-\p{Lu}\p{Ll}+)?)[ \t]+(\p{Lu}(?:\p{Ll}+|\p{Lu}+)(?:-\p{Lu}\p{L}+)?)`)

var labelledName = []*regexp.Regexp{
	regexp.MustCompile(`(?i)adresat:[ \t]*([^\n]+)`),
	regexp.MustCompile(`(?i)imię\s+i\s+nazwisko:[ \t]*([^\n]+)`),
	regexp.MustCompile(`(?i)\bname:[ \t]*([^\n]+)`),
}

// FindFullName looks for the addressee after a Polish salutation or a
// labelled line. At least two tokens are required.
func FindFullName(text string) string {
	if m := salutationName.FindStringSubmatch(text); m != nil {
		return m[1] + " " + m[2]
	}
	for _, re := range labelledName {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		line, _, _ := strings.Cut(m[1], ",")
		line = strings.Trim(strings.TrimSpace(line), ".;:")
		if len(strings.Fields(line)) >= 2 {
			return strings.Join(strings.Fields(line), " ")
		}
	}
	return ""
}
