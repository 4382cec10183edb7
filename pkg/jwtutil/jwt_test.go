package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUtil() *JWTUtil {
	return NewJWTUtil(&JWTConfig{Secret: "test-secret", AccessTTL: time.Hour, RefreshTTL: 7 * 24 * time.Hour})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	util := newUtil()

	token, err := util.GenerateAccessToken("u1", "ana@example.com", "c1", "manager")
	require.NoError(t, err)

	claims, err := util.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "c1", claims.CompanyID)
	assert.Equal(t, "manager", claims.Role)
	assert.False(t, claims.IsRefresh())
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	util := newUtil()

	pair, err := util.GeneratePair("u1", "ana@example.com", "c1", "user")
	require.NoError(t, err)
	assert.EqualValues(t, 3600, pair.ExpiresIn)

	_, err = util.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	claims, err := util.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)

	_, err = util.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestExpiredTokenWithValidSignature(t *testing.T) {
	util := newUtil().WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	token, err := util.GenerateAccessToken("u1", "ana@example.com", "c1", "admin")
	require.NoError(t, err)

	_, err = newUtil().ValidateAccessToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRejectsForeignSignatureAndAlgorithm(t *testing.T) {
	other := NewJWTUtil(&JWTConfig{Secret: "other-secret", AccessTTL: time.Hour})
	token, err := other.GenerateAccessToken("u1", "", "", "")
	require.NoError(t, err)

	_, err = newUtil().ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newUtil().ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestMalformedAndMissingConfig(t *testing.T) {
	_, err := newUtil().ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)

	_, err = NewJWTUtil(nil).ValidateToken("x")
	assert.ErrorIs(t, err, ErrMissingConfig)
}
