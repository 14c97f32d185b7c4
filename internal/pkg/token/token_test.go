package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecret(t *testing.T) {
	s1, err := NewSecret(20)
	require.NoError(t, err)
	s2, err := NewSecret(20)
	require.NoError(t, err)

	assert.Len(t, s1, 40) // hex doubles the byte count
	assert.NotEqual(t, s1, s2)
}

func TestHashIsDeterministic(t *testing.T) {
	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
	assert.Len(t, Hash("abc"), 64)
}

func TestNewVerificationCode(t *testing.T) {
	code, err := NewVerificationCode()
	require.NoError(t, err)

	assert.Len(t, code, 8)
	for _, r := range code {
		assert.Contains(t, "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ", string(r))
	}
}
