package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("secret", "alice", 24*time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := IssueToken("secret", "alice", time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	otherKey, err := IssueToken("other", "alice", time.Hour, time.Now())
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"wrong key": otherKey,
		"garbage":   "not.a.token",
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken("secret", token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(16)
	require.NoError(t, err)
	b, err := GenerateSecureToken(16)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 24)
}

func TestIsValidUsername(t *testing.T) {
	assert.True(t, IsValidUsername("jane.doe_42"))
	assert.False(t, IsValidUsername("jo"))
	assert.False(t, IsValidUsername("has space"))
	assert.False(t, IsValidUsername("semi;colon"))
}

func TestIsComplexPassword(t *testing.T) {
	assert.True(t, IsComplexPassword("Str0ng!pass"))
	assert.False(t, IsComplexPassword("short1!"))
	assert.False(t, IsComplexPassword("alllowercase1!"))
	assert.False(t, IsComplexPassword("NoDigits!!"))
}
