// Package cryptox implements field-level encryption for sensitive client
// columns. Values are Fernet tokens; the first key of a Keyring encrypts and
// every key is tried on decryption, which allows key rotation.
package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/hkdf"
)

var (
	hkdfSalt = []byte("django-fernet-fields-hkdf-salt")
	hkdfInfo = []byte("django-fernet-fields")
)

// ErrNoKeys is returned when a Keyring is built without any key material.
var ErrNoKeys = errors.New("at least one encryption key is required")

// Keyring encrypts with its primary key and decrypts with any key.
type Keyring struct {
	keys []*fernet.Key
}

// NewKeyring accepts Fernet keys (32 bytes, base64) and passphrases. A
// passphrase is stretched to a Fernet key with HKDF-SHA256.
func NewKeyring(secrets []string) (*Keyring, error) {
	if len(secrets) == 0 {
		return nil, ErrNoKeys
	}
	keys := make([]*fernet.Key, 0, len(secrets))
	for i, s := range secrets {
		if s == "" {
			return nil, fmt.Errorf("key %d is empty", i)
		}
		k, err := fernet.DecodeKey(s)
		if err != nil {
			k, err = deriveKey(s)
			if err != nil {
				return nil, fmt.Errorf("derive key %d: %w", i, err)
			}
		}
		keys = append(keys, k)
	}
	return &Keyring{keys: keys}, nil
}

func deriveKey(passphrase string) (*fernet.Key, error) {
	r := hkdf.New(sha256.New, []byte(passphrase), hkdfSalt, hkdfInfo)
	k := new(fernet.Key)
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return nil, err
	}
	return k, nil
}

// Encrypt returns a Fernet token for plain. Empty input passes through.
func (k *Keyring) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	tok, err := fernet.EncryptAndSign([]byte(plain), k.keys[0])
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

// Decrypt returns the plaintext of token. Empty input passes through, and a
// value no key can open is returned unchanged so rows written before
// encryption was enabled stay readable.
func (k *Keyring) Decrypt(token string) string {
	if token == "" {
		return ""
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), -1*time.Second, k.keys)
	if msg == nil {
		return token
	}
	return string(msg)
}

// Seal encrypts a Secret for storage.
func (k *Keyring) Seal(s Secret) (string, error) {
	return k.Encrypt(s.Reveal())
}

// Open decrypts a stored column into a Secret.
func (k *Keyring) Open(stored string) Secret {
	return NewSecret(k.Decrypt(stored))
}
