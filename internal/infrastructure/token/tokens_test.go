package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaque(t *testing.T) {
	first, err := GenerateOpaque(OpaqueTokenBytes)
	require.NoError(t, err)
	second, err := GenerateOpaque(OpaqueTokenBytes)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, first, 43) // 32 bytes base64url without padding
	assert.NotContains(t, first, "=")
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
}

func TestGenerateUserCode(t *testing.T) {
	code, err := GenerateUserCode()
	require.NoError(t, err)

	assert.Len(t, code, 9)
	assert.Equal(t, byte('-'), code[4])
	for _, part := range strings.Split(code, "-") {
		for _, c := range part {
			assert.Contains(t, userCodeCharset, string(c))
		}
	}
}
