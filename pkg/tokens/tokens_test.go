package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("test-jwt-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(15 * time.Minute).UTC()
	tok, err := NewAccessToken(accessSecret, "42", "customer", exp)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, accessSecret)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "customer", claims.Role)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessToken_Rejections(t *testing.T) {
	t.Parallel()

	expired, err := NewAccessToken(accessSecret, "1", "admin", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired, accessSecret)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))

	good, err := NewAccessToken(accessSecret, "1", "admin", time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(good, []byte("other"))
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{Role: "admin"})
	signed, err := none.SignedString(accessSecret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(signed, accessSecret)
	assert.Error(t, err)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	t.Parallel()

	tok, jti, err := NewRefreshToken(refreshSecret, "7", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := RefreshClaimsFromToken(tok, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "7", claims.Subject)

	_, err = RefreshClaimsFromToken(tok, accessSecret)
	assert.Error(t, err)
}
