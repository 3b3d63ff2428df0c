package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	i := &Issuer{Now: func() time.Time { return fixed }}

	tok, err := i.Mint(2 * time.Minute)
	require.NoError(t, err)

	assert.Len(t, tok.Value, 32, "16 bytes hex-encoded")
	assert.Equal(t, fixed.Add(2*time.Minute), tok.ExpiresAt)
}

func TestMintValuesDoNotRepeat(t *testing.T) {
	i := NewIssuer()
	seen := make(map[string]bool)

	for range 1000 {
		tok, err := i.Mint(time.Minute)
		require.NoError(t, err)
		require.False(t, seen[tok.Value], "token value repeated")
		seen[tok.Value] = true
	}
}
