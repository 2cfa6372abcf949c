// Package id generates document handles for the embedded store backends.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PrefixDocument marks handles minted by shelfwise store backends.
const PrefixDocument = "doc"

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "doc-V1StGXR8_Z5jdHi6B-myT").
// The result is URL-safe, so it can appear as a path segment or object key.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Document returns a new document handle.
func Document() (string, error) {
	return Generate(PrefixDocument)
}
