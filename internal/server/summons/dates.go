package summons

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{"2.1.2006", "2-1-2006", "2/1/2006", "2006-01-02"}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:dniu|dnia|dn\.)?\s*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`),
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
}

const dateExpr = `(\d{1,2}[./-]\d{1,2}[./-]\d{4}|\d{4}-\d{2}-\d{2})`

var decisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)zostanie\s+podjęta\s+do\s+dnia\s+` + dateExpr),
	regexp.MustCompile(`(?i)powinna\s+(?:być|zostać)\s+podjęta\s+do\s+dnia\s+` + dateExpr),
	regexp.MustCompile(`(?i)decyzj\pL*\s+zostanie\s+wydana\s+do\s+dnia\s+` + dateExpr),
	regexp.MustCompile(`(?i)termin\s+wydania\s+decyzji[:\s]+(?:do\s+dnia\s+)?` + dateExpr),
	regexp.MustCompile(`(?i)termin\s+(?:rozpatrzenia|załatwienia)\s+sprawy[:\s]+(?:do\s+dnia\s+)?` + dateExpr),
}

var timePattern = regexp.MustCompile(`(?i)(?:godz\.?|godzinie|godzina)\s*(\d{1,2})[:.](\d{2})\b`)

type locationRule struct {
	re     *regexp.Regexp
	format func(m []string) string
}

var locationRules = []locationRule{
	{regexp.MustCompile(`(?i)\bsala\s+(?:nr\.?\s*)?([0-9A-Za-z]+)`), func(m []string) string { return "sala " + m[1] }},
	{regexp.MustCompile(`(?i)\bpokój\s+(?:nr\.?\s*)?([0-9A-Za-z]+)`), func(m []string) string { return "pokój " + m[1] }},
	{regexp.MustCompile(`(?i)miejsce:[ \t]*([^\n]+)`), func(m []string) string { return m[1] }},
	{regexp.MustCompile(`(?i)\b(ul\.[ \t]*[^\n,;]+(?:,[ \t]*[^\n;]+)?)`), func(m []string) string { return m[1] }},
}

// parseDate accepts day-first dotted, dashed or slashed dates and ISO dates.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FirstDate returns the first parseable date in text.
func FirstDate(text string) *time.Time {
	for _, re := range datePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if t, ok := parseDate(m[1]); ok {
				return &t
			}
		}
	}
	return nil
}

func findDecisionDate(text string) *time.Time {
	for _, re := range decisionPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if t, ok := parseDate(m[1]); ok {
				return &t
			}
		}
	}
	return FirstDate(text)
}

// findTime returns the appointment hour as HH:MM.
func findTime(text string) string {
	for _, m := range timePattern.FindAllStringSubmatch(text, -1) {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h < 24 && min < 60 {
			return fmt.Sprintf("%02d:%02d", h, min)
		}
	}
	return ""
}

func findLocation(text string) string {
	for _, r := range locationRules {
		if m := r.re.FindStringSubmatch(text); m != nil {
			if loc := strings.TrimSpace(r.format(m)); loc != "" {
				return loc
			}
		}
	}
	return ""
}
