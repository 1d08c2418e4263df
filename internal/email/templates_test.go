package email

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerificationEmailCarriesLink(t *testing.T) {
	link := "https://app.example.com/verify-email?token=abc"
	c := VerificationEmail(link)

	require.Equal(t, "Verify your email", c.Subject)
	require.Contains(t, c.Text, link)
	require.Contains(t, c.HTML, link)
}

func TestPasswordResetEmailCarriesLink(t *testing.T) {
	link := "https://app.example.com/reset-password?token=abc"
	c := PasswordResetEmail(link)

	require.Equal(t, "Reset your password", c.Subject)
	require.Contains(t, c.Text, link)
	require.Contains(t, c.HTML, link)
}
