package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/viktor-siropol/taskhub/internal/auth"
)

func resetRequestServer(t *testing.T, verified bool) *Server {
	t.Helper()

	users := &stubUserStore{user: &auth.User{
		ID:              "user-1",
		Email:           "alice@example.com",
		Name:            "Alice",
		IsEmailVerified: verified,
	}}
	svc := auth.NewService(users, stubTokenStore{}, auth.NewTokenService([]byte("test-secret")), auth.NewBcryptHasher(), stubMailer{}, "http://localhost:5173")
	return &Server{Auth: svc}
}

func TestResetPasswordRequestUnverifiedMessage(t *testing.T) {
	srv := resetRequestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password-request",
		strings.NewReader(`{"email":"alice@example.com"}`))
	rec := httptest.NewRecorder()
	srv.handleResetPasswordRequest(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	// This path sends no verification mail, so it must not tell the user to
	// check their inbox.
	require.Equal(t, "Please verify your email first", body["message"])
}

func TestResetPasswordRequestUnknownEmail(t *testing.T) {
	srv := resetRequestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password-request",
		strings.NewReader(`{"email":"nobody@example.com"}`))
	rec := httptest.NewRecorder()
	srv.handleResetPasswordRequest(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
