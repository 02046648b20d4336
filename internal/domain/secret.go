package domain

import (
	"crypto/subtle"
	"strings"
)

const maskedSecret = "*****"

// Secret holds a credential. It renders masked through fmt, JSON and text
// marshalling; the raw value is only available through Reveal.
type Secret struct {
	value string
}

// NewSecret wraps a raw credential.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Reveal returns the raw credential.
func (s Secret) Reveal() string {
	return s.value
}

// IsBlank reports whether the secret is empty or whitespace only.
func (s Secret) IsBlank() bool {
	return strings.TrimSpace(s.value) == ""
}

// Equal compares two secrets in constant time.
func (s Secret) Equal(other Secret) bool {
	return subtle.ConstantTimeCompare([]byte(s.value), []byte(other.value)) == 1
}

func (s Secret) String() string {
	if s.value == "" {
		return ""
	}
	return maskedSecret
}

func (s Secret) GoString() string {
	return "domain.Secret{" + s.String() + "}"
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText loads the raw credential, so secrets can be read from
// configuration files.
func (s *Secret) UnmarshalText(text []byte) error {
	s.value = string(text)
	return nil
}
