package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	clock := newFakeClock()
	svc, err := NewTokenService(testSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	for _, validity := range []time.Duration{time.Second, time.Hour, 3 * time.Hour, 30 * 24 * time.Hour} {
		id := uuid.New()
		token, issued, err := svc.Issue(id, validity)
		require.NoError(t, err)

		claims, err := svc.Decode(token)
		require.NoError(t, err)

		subject, err := claims.Subject()
		require.NoError(t, err)
		assert.Equal(t, id, subject)
		assert.Equal(t, id.String(), claims.RegisteredClaims.Subject)
		assert.Equal(t, validity, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
		assert.True(t, issued.ExpiresAt.Equal(claims.ExpiresAt.Time))
	}
}

func TestTokenFractionalValidityRoundsUp(t *testing.T) {
	clock := newFakeClock()
	clock.Advance(700 * time.Millisecond)
	svc, err := NewTokenService(testSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	cases := []struct {
		validity time.Duration
		want     time.Duration
	}{
		{validity: time.Nanosecond, want: time.Second},
		{validity: 500 * time.Millisecond, want: time.Second},
		{validity: time.Second, want: time.Second},
		{validity: 1500 * time.Millisecond, want: 2 * time.Second},
		{validity: 90*time.Minute + 250*time.Millisecond, want: 90*time.Minute + time.Second},
		{validity: 24 * time.Hour, want: 24 * time.Hour},
	}
	for _, tc := range cases {
		token, issued, err := svc.Issue(uuid.New(), tc.validity)
		require.NoError(t, err, tc.validity)
		assert.Equal(t, tc.want, issued.ExpiresAt.Sub(issued.IssuedAt.Time), tc.validity)

		claims, err := svc.Decode(token)
		require.NoError(t, err, "fresh token with validity %s must decode", tc.validity)
		assert.Equal(t, tc.want, claims.ExpiresAt.Sub(claims.IssuedAt.Time), tc.validity)
	}
}

func TestTokenExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	svc, err := NewTokenService(testSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	id := uuid.New()
	token, _, err := svc.Issue(id, 2*time.Hour)
	require.NoError(t, err)

	clock.Advance(2*time.Hour - time.Second)
	_, err = svc.Decode(token)
	require.NoError(t, err)

	clock.Advance(time.Second)
	claims, err := svc.Decode(token)
	require.ErrorIs(t, err, ErrExpiredToken)
	require.NotNil(t, claims, "expired tokens still expose their claims")
	subject, err := claims.Subject()
	require.NoError(t, err)
	assert.Equal(t, id, subject)
}

func TestTokenDecodeRejectsInvalid(t *testing.T) {
	clock := newFakeClock()
	svc, err := NewTokenService(testSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	token, _, err := svc.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)

	other, err := NewTokenService("another-secret", "HS256", WithClock(clock.Now))
	require.NoError(t, err)
	foreign, _, err := other.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)

	strong, err := NewTokenService(testSecret, "HS512", WithClock(clock.Now))
	require.NoError(t, err)
	wrongAlg, _, err := strong.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     clock.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	for name, candidate := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"tampered":     tampered,
		"wrong secret": foreign,
		"wrong alg":    wrongAlg,
		"none alg":     unsigned,
	} {
		claims, err := svc.Decode(candidate)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
		assert.NotErrorIs(t, err, ErrExpiredToken, name)
		assert.Nil(t, claims, name)
	}
}

func TestTokenExpiredWithBadSignatureIsInvalid(t *testing.T) {
	clock := newFakeClock()
	svc, err := NewTokenService(testSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)
	other, err := NewTokenService("another-secret", "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	foreign, _, err := other.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	_, err = svc.Decode(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrExpiredToken)
}

func TestTokenRejectsMissingSubject(t *testing.T) {
	clock := newFakeClock()
	svc, err := NewTokenService(testSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": clock.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenServiceValidation(t *testing.T) {
	_, err := NewTokenService("", "HS256")
	assert.Error(t, err)

	_, err = NewTokenService(testSecret, "RS256")
	assert.Error(t, err)

	svc, err := NewTokenService(testSecret, "HS384")
	require.NoError(t, err)
	_, _, err = svc.Issue(uuid.New(), 0)
	assert.Error(t, err)
}
