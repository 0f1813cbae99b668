package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("unit-test-secret-0123456789abcdefghij")

	token, err := manager.GenerateAccessToken(5, []string{"staff", "manager"})
	require.NoError(t, err)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int32(5), claims.StaffID)
	assert.Equal(t, []string{"staff", "manager"}, claims.Roles)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-one-0123456789abcdefghijklmn").GenerateAccessToken(5, nil)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-two-0123456789abcdefghijklmn").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	manager := NewTokenManager("unit-test-secret-0123456789abcdefghij")
	_, err := manager.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
