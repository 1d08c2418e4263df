package auth

import "errors"

// Flow outcomes. The HTTP layer matches these with errors.Is and maps them to
// status codes; anything else collapses to a generic internal error.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email address already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenExpired       = errors.New("token expired")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrNotVerified        = errors.New("email not verified")
	ErrResetPending       = errors.New("reset password request already sent")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUserNotFound       = errors.New("user not found")

	// ErrEmailDelivery means the notification could not be sent after state
	// was already persisted. Nothing is rolled back; the retry path is a new
	// login attempt or reset request, which reissues and resends.
	ErrEmailDelivery = errors.New("failed to send email")
)
