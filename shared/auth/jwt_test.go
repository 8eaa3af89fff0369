package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthenticator(accessTTL, refreshTTL time.Duration) JWTAuthenticator {
	return NewJWTAuthenticator(Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "kaze-api",
		Audience:      "kaze-api",
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	})
}

func TestGenerateTokenPair_RoundTrip(t *testing.T) {
	t.Parallel()

	a := testAuthenticator(15*time.Minute, 7*24*time.Hour)

	access, refresh, refreshExpiresAt, err := a.GenerateTokenPair("user-1", "a@example.com", "Aiko")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), refreshExpiresAt, 5*time.Second)

	claims, err := a.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "Aiko", claims.Name)

	claims, err = a.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestVerify_WrongClassRejected(t *testing.T) {
	t.Parallel()

	a := testAuthenticator(15*time.Minute, 7*24*time.Hour)

	access, refresh, _, err := a.GenerateTokenPair("user-1", "a@example.com", "Aiko")
	require.NoError(t, err)

	// Each class is signed with its own secret.
	_, err = a.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = a.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_ExpiredRejected(t *testing.T) {
	t.Parallel()

	a := testAuthenticator(-time.Minute, -time.Minute)

	access, refresh, _, err := a.GenerateTokenPair("user-1", "a@example.com", "Aiko")
	require.NoError(t, err)

	_, err = a.VerifyAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = a.VerifyRefreshToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedRejected(t *testing.T) {
	t.Parallel()

	a := testAuthenticator(15*time.Minute, 7*24*time.Hour)

	access, _, _, err := a.GenerateTokenPair("user-1", "a@example.com", "Aiko")
	require.NoError(t, err)

	tampered := access[:len(access)-2] + "xx"
	_, err = a.VerifyAccessToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.VerifyAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongIssuerRejected(t *testing.T) {
	t.Parallel()

	issuerA := testAuthenticator(15*time.Minute, 7*24*time.Hour)

	other := NewJWTAuthenticator(Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "someone-else",
		Audience:      "someone-else",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})

	access, _, _, err := other.GenerateTokenPair("user-1", "a@example.com", "Aiko")
	require.NoError(t, err)

	_, err = issuerA.VerifyAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenPair_DistinctValues(t *testing.T) {
	t.Parallel()

	a := testAuthenticator(15*time.Minute, 7*24*time.Hour)

	// Two pairs minted back to back must still differ, or refresh
	// rotation within one second would rotate a token onto itself.
	_, first, _, err := a.GenerateTokenPair("user-1", "a@example.com", "Aiko")
	require.NoError(t, err)
	_, second, _, err := a.GenerateTokenPair("user-1", "a@example.com", "Aiko")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
