package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

func TestTokenPairRoundTrip(t *testing.T) {
	pair, err := GenerateTokenPair(42, "alice", "alice@example.com")
	require.NoError(t, err)
	require.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := ParseToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	refreshClaims, err := ParseRefreshToken(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, uint(42), refreshClaims.UserID)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
	// The jti makes every refresh token individually revocable.
	assert.NotEmpty(t, refreshClaims.ID)
}

func TestParseRefreshTokenRejectsAccessToken(t *testing.T) {
	access, err := GenerateAccessToken(1, "alice", "alice@example.com")
	require.NoError(t, err)

	_, err = ParseRefreshToken(access)
	assert.ErrorIs(t, err, ErrNotRefreshToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)

	_, err = ParseToken("")
	assert.Error(t, err)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	first, err := GenerateRefreshToken(1)
	require.NoError(t, err)
	second, err := GenerateRefreshToken(1)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestBlacklist(t *testing.T) {
	token, err := GenerateRefreshToken(7)
	require.NoError(t, err)

	require.False(t, IsTokenBlacklisted(token))

	BlacklistToken(token, time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted(token))

	_, err = ParseRefreshToken(token)
	assert.Error(t, err)
}

func TestBlacklistIgnoresExpiredTokens(t *testing.T) {
	BlacklistToken("already-expired", time.Now().Add(-time.Minute))
	assert.False(t, IsTokenBlacklisted("already-expired"))
}
