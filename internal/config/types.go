package config

import "strings"

const secretMask = "[REDACTED]"

// Secret is a credential read from a config file or the environment.
// It prints as a mask everywhere except through Value.
type Secret string

// Value returns the raw credential.
func (s Secret) Value() string { return string(s) }

// IsSet reports whether a non-blank credential is present.
func (s Secret) IsSet() bool { return strings.TrimSpace(string(s)) != "" }

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return secretMask
}

func (s Secret) GoString() string { return "config.Secret(" + secretMask + ")" }

// MarshalText masks the credential in JSON and YAML dumps of the config.
func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText trims the trailing newline that key files and shell
// exports tend to carry.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(strings.TrimSpace(string(text)))
	return nil
}
