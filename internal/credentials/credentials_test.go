package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfwise/internal/errors"
)

func TestForName(t *testing.T) {
	s, err := ForName("")
	require.NoError(t, err)
	assert.IsType(t, Plaintext{}, s)

	s, err = ForName("ARGON2ID")
	require.NoError(t, err)
	assert.IsType(t, Argon2id{}, s)

	_, err = ForName("rot13")
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestPlaintext(t *testing.T) {
	var s Plaintext

	sealed, err := s.Seal("Secret123")
	require.NoError(t, err)
	assert.Equal(t, "Secret123", sealed)

	assert.True(t, s.Match(sealed, "Secret123"))
	assert.False(t, s.Match(sealed, "secret123"))
	assert.False(t, s.Match(sealed, ""))
}

func TestArgon2id_SealAndMatch(t *testing.T) {
	var s Argon2id

	sealed, err := s.Seal("Secret123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "$argon2id$v=19$"))
	assert.NotContains(t, sealed, "Secret123")

	assert.True(t, s.Match(sealed, "Secret123"))
	assert.False(t, s.Match(sealed, "Secret124"))
}

func TestArgon2id_SaltsDiffer(t *testing.T) {
	var s Argon2id

	a, err := s.Seal("Secret123")
	require.NoError(t, err)
	b, err := s.Seal("Secret123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestArgon2id_RejectsBadInput(t *testing.T) {
	var s Argon2id

	_, err := s.Seal("")
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = s.Seal(strings.Repeat("a", maxPasswordLength+1))
	assert.ErrorIs(t, err, errors.ErrValidation)

	for _, stored := range []string{
		"",
		"Secret123",
		"$argon2i$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$!!$aGFzaA",
	} {
		assert.False(t, s.Match(stored, "Secret123"), stored)
	}
}
