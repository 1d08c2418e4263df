package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose tags a signed token with the single flow allowed to accept it.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email-verification"
	PurposeResetPassword     Purpose = "reset-password"
	PurposeLogin             Purpose = "login"
)

const (
	EmailVerificationTTL = time.Hour
	ResetPasswordTTL     = 15 * time.Minute
	LoginTTL             = 7 * 24 * time.Hour
)

type Claims struct {
	jwt.RegisteredClaims
	UserID  string  `json:"userId"`
	Purpose Purpose `json:"purpose"`
}

// TokenService mints and verifies signed, expiring, purpose-tagged tokens.
// The signing secret is injected; there is no ambient key lookup.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret}
}

func (s *TokenService) Issue(userID string, purpose Purpose, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:  userID,
		Purpose: purpose,
	})
	return token.SignedString(s.secret)
}

// Verify decodes a signed token. Malformed input, a bad signature and an
// expired signature all fail closed to ErrUnauthorized.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}
