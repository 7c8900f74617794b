package summons

import (
	"regexp"
	"strings"
)

// casePattern is one rung of the case-number ladder. normalize returns ""
// for a match that must be skipped.
type casePattern struct {
	re        *regexp.Regexp
	normalize func(raw string) string
}

func labelled(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + label + `[:\s]*([-A-Za-z0-9./ ]+)`)
}

// caseLadder is scanned in order; the first accepted candidate wins.
var caseLadder = []casePattern{
	// WSC-II-S.6151.12345.2024
	{regexp.MustCompile(`(?i)\b(WSC[-\s]+[XIV]+[-\s]+[A-Z][.\s]+\d+[.\s]+\d+(?:[.\s]+\d+)?)\b`), normalizeWSCFamily},
	// same shape with common OCR confusions
	{regexp.MustCompile(`(?i)\b((?:WSC|WSO|W\$C|W5C)[-\s]+[XIV1l]+[-\s]+[A-Z5$][.\s]+\d+[.\s]+\d+(?:[.\s]+\d+)?)\b`), normalizeWSCFamily},

	{labelled(`numer\s+sprawy`), normalizeLabelled},
	{labelled(`nr\s+sprawy`), normalizeLabelled},
	{labelled(`sprawa\s+nr`), normalizeLabelled},
	{labelled(`(?:sygnatura|sygn\.)\s*akt`), normalizeLabelled},
	{labelled(`sygnatura`), normalizeLabelled},
	{labelled(`nr\s+akt`), normalizeLabelled},
	{labelled(`znak\s+sprawy`), normalizeLabelled},

	// wide net for OCR-mangled WSC prefixes, single line; a space followed
	// by a letter ends the candidate
	{regexp.MustCompile(`(?i)((?:W[ \t]*S[ \t]*C|S[ \t]*O[ \t]*C|W[ \t]*5[ \t]*C|V[ \t]*V[ \t]*S[ \t]*C|W[ \t]*\$[ \t]*C|W[ \t]*\.[ \t]*S[ \t]*\.[ \t]*C)[-\w./]*(?:[ \t]+[-\d./][-\w./]*)*)`), normalizeWSCFamily},
	// PREFIX-ROMAN-L.YYYY.N shapes, single line
	{regexp.MustCompile(`(?i)([A-Z0-9 ]{2,5}[- ]+[XIV1l\d]{1,5}[- ]+[A-Z0-9][. ]+\d{4}[. ]+\d+(?:[. ]+\d+)?)`), normalizeWSCFamily},
	{regexp.MustCompile(`(?i)\b([A-Z]{2,4}[- ][XIV]+\.[-\w./]+)\b`), normalizeGeneric},
	{regexp.MustCompile(`\b([A-Z]{1,3}[ \t]?/[ \t]?\d{1,5}[ \t]?/[ \t]?\d{2,4})\b`), normalizeGeneric},
}

var (
	wscShape   = regexp.MustCompile(`(?i)^([A-Z0-9$.\s]{2,9})[-\s]+([XIV1l\d]{1,5})[-\s]+([A-Z0-9$])([.\s]+\d+(?:[.\s]+\d+)+)`)
	isoDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	urlLike    = regexp.MustCompile(`(?i)(?:https?://|www\.|\.(?:pl|com|eu|org|net|gov|info)\b)`)
	whitespace = regexp.MustCompile(`\s+`)
)

// leadingPrefix is the prefix of a dashless candidate; a 5 counts only
// before a letter.
var leadingPrefix = regexp.MustCompile(`^(?:[A-Z$.]|5[A-Z$])+`)

// FindCaseNumber returns the first accepted case number in text, or "".
func FindCaseNumber(text string) string {
	for _, p := range caseLadder {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			raw := m[1]
			if urlLike.MatchString(raw) {
				continue
			}
			if n := p.normalize(raw); n != "" {
				return n
			}
		}
	}
	return ""
}

// normalizeWSC rewrites an OCR-read WSC signature into PREFIX-ROMAN-CODE.N.N.
// ok is false when raw does not have the WSC shape.
func normalizeWSC(raw string) (string, bool) {
	m := wscShape.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	roman := strings.NewReplacer("1", "I", "L", "I").Replace(strings.ToUpper(m[2]))
	code := strings.NewReplacer("5", "S", "$", "S").Replace(strings.ToUpper(m[3]))
	numbers := whitespace.ReplaceAllString(m[4], "")
	return normalizePrefix(m[1]) + "-" + roman + "-" + code + numbers, true
}

// normalizePrefix fixes OCR confusions in the letters before the roman part.
func normalizePrefix(p string) string {
	p = strings.ToUpper(whitespace.ReplaceAllString(p, ""))
	p = strings.NewReplacer(".", "", "VV", "W", "5", "S", "$", "S").Replace(p)
	switch p {
	case "WS", "SOC":
		return "WSC"
	}
	return p
}

// normalizeWSCFamily is used by rungs that only match WSC-like shapes.
// Outside the WSC shape only the prefix segment is rewritten; digits in
// the tail are kept.
func normalizeWSCFamily(raw string) string {
	if n, ok := normalizeWSC(raw); ok {
		return n
	}
	s := compact(raw)
	if prefix, rest, found := strings.Cut(s, "-"); found {
		return accept(normalizePrefix(prefix) + "-" + rest)
	}
	prefix := leadingPrefix.FindString(s)
	return accept(normalizePrefix(prefix) + s[len(prefix):])
}

// normalizeLabelled keeps the WSC rewrite only when the labelled value
// really is a WSC signature, so digits in other codes stay untouched.
func normalizeLabelled(raw string) string {
	if n, ok := normalizeWSC(raw); ok && strings.HasPrefix(n, "WSC-") {
		return n
	}
	return normalizeGeneric(raw)
}

func normalizeGeneric(raw string) string {
	return accept(compact(raw))
}

func compact(raw string) string {
	s := whitespace.ReplaceAllString(raw, "")
	return strings.ToUpper(strings.Trim(s, ".,-:/"))
}

func accept(s string) string {
	if len(s) < 5 || isoDate.MatchString(s) || urlLike.MatchString(s) {
		return ""
	}
	return s
}
