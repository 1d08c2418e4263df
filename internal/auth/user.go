package auth

import "time"

type User struct {
	ID              string
	Email           string
	Name            string
	PasswordHash    string
	ProfilePicture  *string
	IsEmailVerified bool
	LastLogin       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Sanitized returns a copy with the password hash stripped. Every user record
// that leaves this package through an API response goes through it.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// VerificationToken is a one-shot redeemable token record. The purpose lives
// both on the record and inside the signed token; redemption checks both so
// the two sources cannot silently disagree.
type VerificationToken struct {
	ID        string
	UserID    string
	Token     string
	Purpose   Purpose
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
