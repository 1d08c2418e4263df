package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"unicode"

	"github.com/viktor-siropol/taskhub/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeFlowError maps auth flow outcomes to transport status codes. Unknown
// errors are logged and collapse to a generic 500 so internals never leak.
func writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrAlreadyVerified),
		errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrResetPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrNotVerified):
		writeError(w, http.StatusForbidden, "Email not verified. Please check your email for the verification link.")
	case errors.Is(err, auth.ErrEmailDelivery):
		// Distinct from a validation failure: state was persisted, only the
		// send failed. A retry goes through login / reset-request.
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func validateEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one number")
	}
	if !hasSpecial {
		return errors.New("password must contain at least one special character")
	}
	return nil
}

// userJSON is the wire shape of a user record; the password hash has no
// representation here at all.
type userJSON struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	ProfilePicture  *string `json:"profilePicture"`
	IsEmailVerified bool    `json:"isEmailVerified"`
	LastLogin       *string `json:"lastLogin"`
	CreatedAt       string  `json:"createdAt"`
}

func toUserJSON(u auth.User) userJSON {
	out := userJSON{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		ProfilePicture:  u.ProfilePicture,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if u.LastLogin != nil {
		formatted := u.LastLogin.UTC().Format("2006-01-02T15:04:05Z07:00")
		out.LastLogin = &formatted
	}
	return out
}
