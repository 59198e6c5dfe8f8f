package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, VerifyPassword(hash, "correct-horse-battery-staple"))
	assert.False(t, VerifyPassword(hash, "wrong-password"))
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("pw")
	require.NoError(t, err)
	h2, err := HashPassword("pw")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "bcrypt must salt each hash")
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "pw"))
}

func TestHashToken_Deterministic(t *testing.T) {
	t.Parallel()

	a := HashToken("raw-token-value")
	b := HashToken("raw-token-value")
	c := HashToken("other-token")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotContains(t, a, "raw-token-value")
	// SHA-256 digest is 32 bytes, 44 chars in padded base64.
	assert.Len(t, a, 44)
	assert.True(t, strings.HasSuffix(a, "="))
}
