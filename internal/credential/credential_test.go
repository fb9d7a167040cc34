package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	digest, err := Hash("password123")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.NotEqual(t, "password123", digest)

	assert.True(t, Verify("password123", digest))
	assert.False(t, Verify("wrongpass", digest))
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("same-input")
	require.NoError(t, err)
	second, err := Hash("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, Verify("same-input", first))
	assert.True(t, Verify("same-input", second))
}

func TestVerifyMalformedDigest(t *testing.T) {
	assert.False(t, Verify("password123", ""))
	assert.False(t, Verify("password123", "not-a-bcrypt-digest"))
}
