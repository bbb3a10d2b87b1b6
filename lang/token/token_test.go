package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := PLUS; tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String(), "token %d must have a string representation", tok)
	}
}

func TestTokenStringIllegal(t *testing.T) {
	require.Equal(t, "illegal token", ILLEGAL.String())
	require.Equal(t, "illegal token", Token(-1).String())
	require.Equal(t, "illegal token", maxToken.String())
}
