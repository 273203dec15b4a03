package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	ownerID := uuid.New()

	token, err := GenerateToken(ownerID, "owner@test.com", testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, ownerID, claims.OwnerID)
	assert.Equal(t, "owner@test.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestValidateToken(t *testing.T) {
	ownerID := uuid.New()

	validToken, err := GenerateToken(ownerID, "", testSecret, time.Hour)
	require.NoError(t, err)

	expiredToken, err := GenerateToken(ownerID, "", testSecret, -time.Hour)
	require.NoError(t, err)

	foreignIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   ownerID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  Issuer,
		Subject: ownerID.String(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{name: "expired token", token: expiredToken, secret: testSecret, wantErrIs: jwt.ErrTokenExpired},
		{name: "wrong secret", token: validToken, secret: "wrong-secret", wantErrIs: jwt.ErrTokenSignatureInvalid},
		{name: "malformed token", token: "not.a.valid.jwt", secret: testSecret, wantErrIs: jwt.ErrTokenMalformed},
		{name: "empty token", token: "", secret: testSecret, wantErrIs: jwt.ErrTokenMalformed},
		{name: "foreign issuer", token: foreignIssuer, secret: testSecret, wantErrIs: jwt.ErrTokenInvalidIssuer},
		{name: "missing expiry", token: noExpiry, secret: testSecret, wantErrIs: jwt.ErrTokenRequiredClaimMissing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, tc.secret)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErrIs)
		})
	}
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(signed, testSecret)
	require.Error(t, err)
}

func TestValidateToken_RejectsNonUUIDSubject(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateToken(signed, testSecret)
	require.Error(t, err)
}

func TestOwnerFromContext(t *testing.T) {
	_, ok := OwnerFromContext(context.Background())
	assert.False(t, ok)

	_, ok = OwnerFromContext(ContextWithOwner(context.Background(), uuid.Nil))
	assert.False(t, ok)

	id := uuid.New()
	got, ok := OwnerFromContext(ContextWithOwner(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
