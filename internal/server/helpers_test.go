package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/viktor-siropol/taskhub/internal/auth"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.co", "alice@example.com", "first.last+tag@sub.example.org"}
	for _, addr := range valid {
		require.True(t, validateEmail(addr), addr)
	}

	invalid := []string{"", "no-at-sign", "@example.com", "spaces in@example.com"}
	for _, addr := range invalid {
		require.False(t, validateEmail(addr), addr)
	}
}

func TestValidatePassword(t *testing.T) {
	require.NoError(t, validatePassword("Sup3r$ecret"))

	cases := map[string]string{
		"Sh0rt!":       "at least 8 characters",
		"alllower1!":   "uppercase",
		"ALLUPPER1!":   "lowercase",
		"NoDigits!!":   "number",
		"NoSpecial123": "special",
	}
	for password, want := range cases {
		err := validatePassword(password)
		require.Error(t, err, password)
		require.Contains(t, err.Error(), want)
	}
}

func TestWriteFlowErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{auth.ErrInvalidInput, 400},
		{auth.ErrPasswordMismatch, 400},
		{auth.ErrAlreadyVerified, 400},
		{auth.ErrUserNotFound, 400},
		{auth.ErrEmailTaken, 409},
		{auth.ErrResetPending, 409},
		{auth.ErrInvalidCredentials, 401},
		{auth.ErrUnauthorized, 401},
		{auth.ErrTokenExpired, 401},
		{auth.ErrNotVerified, 403},
		{auth.ErrEmailDelivery, 502},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeFlowError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}
