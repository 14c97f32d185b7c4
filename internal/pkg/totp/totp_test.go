package totp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnroll(t *testing.T) {
	e := NewEngine("ShopAccounts")

	enrollment, err := e.Enroll("alice@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, enrollment.Secret)
	assert.Contains(t, enrollment.URI, "otpauth://totp/")
	assert.Contains(t, enrollment.URI, "ShopAccounts")
	assert.True(t, strings.HasPrefix(enrollment.QRDataURL, "data:image/png;base64,"))
}

func TestVerifyCurrentCode(t *testing.T) {
	e := NewEngine("ShopAccounts")
	enrollment, err := e.Enroll("alice@example.com")
	require.NoError(t, err)

	code, err := GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	assert.True(t, e.Verify(enrollment.Secret, code))
	assert.False(t, e.Verify(enrollment.Secret, "000000"))
}

func TestVerifyAcceptsClockDrift(t *testing.T) {
	e := NewEngine("ShopAccounts")
	enrollment, err := e.Enroll("alice@example.com")
	require.NoError(t, err)

	// codes from up to two periods away are accepted
	behind, err := GenerateCode(enrollment.Secret, time.Now().Add(-2*30*time.Second))
	require.NoError(t, err)
	ahead, err := GenerateCode(enrollment.Secret, time.Now().Add(2*30*time.Second))
	require.NoError(t, err)

	assert.True(t, e.Verify(enrollment.Secret, behind))
	assert.True(t, e.Verify(enrollment.Secret, ahead))
}

func TestVerifyRejectsStaleCode(t *testing.T) {
	e := NewEngine("ShopAccounts")
	enrollment, err := e.Enroll("alice@example.com")
	require.NoError(t, err)

	stale, err := GenerateCode(enrollment.Secret, time.Now().Add(-10*30*time.Second))
	require.NoError(t, err)

	assert.False(t, e.Verify(enrollment.Secret, stale))
}
