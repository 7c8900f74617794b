package summons

import "strings"

var kindMarkers = []struct {
	kind    Kind
	phrases []string
}{
	{KindConfirmation, []string{"potwierdzenie złożenia", "potwierdzenie przyjęcia", "odciski linii papilarnych zostały pobrane"}},
	{KindDecision, []string{"decyzj", "wydanie decyzji", "termin wydania", "termin rozpatrz"}},
	{KindFingerprints, []string{"odcisk", "odciski", "pobran", "fingerprint"}},
}

// Classify decides the summons kind. Earlier markers take precedence.
func Classify(text string) Kind {
	lower := strings.ToLower(text)
	for _, m := range kindMarkers {
		for _, p := range m.phrases {
			if strings.Contains(lower, p) {
				return m.kind
			}
		}
	}
	return KindUnknown
}
