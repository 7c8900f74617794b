package summons

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindCaseNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"strict wsc", "Znak: WSC-II-S.6151.97.2024 z dnia", "WSC-II-S.6151.97.2024"},
		{"strict wsc with spaces", "WSC II S 6151 97 2024", "WSC-II-S6151972024"},
		{"ocr confusions", "sygn. W5C-11-5.6151.97.2024", "WSC-II-S.6151.97.2024"},
		{"dollar for S", "W$C-II-S.6151.97.2024", "WSC-II-S.6151.97.2024"},
		{"dollar prefix keeps fives", "W$C-II-S.6151.55.2024", "WSC-II-S.6151.55.2024"},
		{"dotted prefix wide net", "pismo W.S.C-II-S.6151.5.2024 odbiór", "WSC-II-S.6151.5.2024"},
		{"wide net stops at next word", "W S C-II-S.6151.5.2024 Odbiór osobisty", "WSC-II-S.6151.5.2024"},
		{"outside wsc shape only prefix rewritten", "W$C-5.55", "WSC-5.55"},
		{"dashless keeps tail digits", "W$C 5555", "WSC5555"},
		{"labelled", "Sygnatura akt: II SA/Wa 123/24\n", "IISA/WA123/24"},
		{"labelled keeps digits", "Nr sprawy: AB-1555-2024", "AB-1555-2024"},
		{"spaced prefix wide net", "pismo W S C-II-S.6151.5.2024 odbiór", "WSC-II-S.6151.5.2024"},
		{"old strict", "Dotyczy: SO / 123 / 2024 r.", "SO/123/2024"},
		{"iso date rejected", "Numer sprawy: 2024-05-12", ""},
		{"too short", "Numer sprawy: A1", ""},
		{"url rejected", "Znak sprawy: www.duw.pl", ""},
		{"nothing", "Proszę przyjść w poniedziałek.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindCaseNumber(tt.text))
		})
	}
}

func TestNormalizeWSC(t *testing.T) {
	got, ok := normalizeWSC("VVSC - 1l - 5 . 6151 . 12 . 2024")
	assert.True(t, ok)
	assert.Equal(t, "WSC-II-S.6151.12.2024", got)

	_, ok = normalizeWSC("ABC/123/24")
	assert.False(t, ok)
}
