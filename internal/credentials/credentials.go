// Package credentials seals passwords before they are stored and matches
// login attempts against stored values.
package credentials

import (
	"strings"

	"github.com/listenupapp/shelfwise/internal/errors"
)

// Scheme names accepted by ForName.
const (
	NamePlaintext = "plaintext"
	NameArgon2id  = "argon2id"
)

// Scheme turns a password into its stored form and checks attempts against it.
type Scheme interface {
	// Seal returns the value to store for password.
	Seal(password string) (string, error)
	// Match reports whether password produces stored.
	Match(stored, password string) bool
}

// ForName returns the scheme registered under name.
func ForName(name string) (Scheme, error) {
	switch strings.ToLower(name) {
	case "", NamePlaintext:
		return Plaintext{}, nil
	case NameArgon2id:
		return Argon2id{}, nil
	default:
		return nil, errors.Validationf("unknown credential scheme %q", name)
	}
}

// Plaintext stores passwords as given and compares them exactly.
type Plaintext struct{}

// Seal returns password unchanged.
func (Plaintext) Seal(password string) (string, error) {
	return password, nil
}

// Match compares exactly.
func (Plaintext) Match(stored, password string) bool {
	return stored == password
}
