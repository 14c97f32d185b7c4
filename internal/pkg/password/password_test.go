package password

import (
	"errors"
	"testing"

	"github.com/shop-accounts-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	v := NewVault(4) // bcrypt.MinCost keeps the test fast

	hash, err := v.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, v.Verify("s3cret-pass", hash))
	assert.False(t, v.Verify("wrong-pass", hash))
	assert.False(t, v.Verify("s3cret-pass", "not-a-bcrypt-hash"))
}

func TestHashProducesUniqueSalts(t *testing.T) {
	v := NewVault(4) // bcrypt.MinCost keeps the test fast

	h1, err := v.Hash("same-input")
	require.NoError(t, err)
	h2, err := v.Hash("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestHashWithoutCost(t *testing.T) {
	v := NewVault(0)

	_, err := v.Hash("anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
