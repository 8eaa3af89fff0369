package security

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateResetToken()
	require.NoError(t, err)

	// 32 random bytes, hex encoded.
	require.Len(t, token, 64)
	_, err = hex.DecodeString(token)
	require.NoError(t, err)
}

func TestGenerateResetToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 100 {
		token, err := GenerateResetToken()
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate reset token generated")
		seen[token] = true
	}
}
