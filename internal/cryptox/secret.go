package cryptox

import (
	"encoding/json"
	"log/slog"
)

const redacted = "******"

// Secret holds a decrypted sensitive value. It prints and logs redacted;
// callers must ask for the plaintext with Reveal.
type Secret struct {
	v string
}

func NewSecret(v string) Secret { return Secret{v: v} }

func (s Secret) Reveal() string { return s.v }

func (s Secret) IsEmpty() bool { return s.v == "" }

func (s Secret) Equal(o Secret) bool { return s.v == o.v }

func (s Secret) String() string {
	if s.v == "" {
		return ""
	}
	return redacted
}

func (s Secret) LogValue() slog.Value { return slog.StringValue(s.String()) }

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }
