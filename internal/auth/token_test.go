package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"))

	token, err := svc.Issue("user-1", PurposeEmailVerification, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, PurposeEmailVerification, claims.Purpose)
}

func TestTokenPurposePreserved(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"))

	for _, purpose := range []Purpose{PurposeEmailVerification, PurposeResetPassword, PurposeLogin} {
		token, err := svc.Issue("user-1", purpose, time.Hour)
		require.NoError(t, err)

		claims, err := svc.Verify(token)
		require.NoError(t, err)
		require.Equal(t, purpose, claims.Purpose)
	}
}

func TestTokenExpiredSignature(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"))

	token, err := svc.Issue("user-1", PurposeLogin, -time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService([]byte("secret-a"))
	verifier := NewTokenService([]byte("secret-b"))

	token, err := issuer.Issue("user-1", PurposeLogin, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenMalformed(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"))

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(raw)
		require.ErrorIs(t, err, ErrUnauthorized)
	}
}
