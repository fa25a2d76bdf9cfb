package random

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenEncodesRequestedBytes(t *testing.T) {
	token, err := New().Token(32)
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestTokenIsUnique(t *testing.T) {
	r := New()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := r.Token(16)
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token %q", token)
		seen[token] = true
	}
}

func TestTokenZeroLength(t *testing.T) {
	token, err := New().Token(0)
	require.NoError(t, err)
	assert.Empty(t, token)
}
