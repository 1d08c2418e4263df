package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viktor-siropol/taskhub/internal/email"
)

type UserStore interface {
	Create(ctx context.Context, email, name, passwordHash string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	SetEmailVerified(ctx context.Context, userID string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type TokenStore interface {
	FindByUser(ctx context.Context, userID string) (*VerificationToken, error)
	Find(ctx context.Context, userID, token string, purpose Purpose) (*VerificationToken, error)
	Replace(ctx context.Context, userID, token string, purpose Purpose, expiresAt time.Time) (*VerificationToken, error)
	Consume(ctx context.Context, userID, token string, purpose Purpose) (bool, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Service orchestrates registration, login, email verification and password
// reset as one state machine over (user, verification-token) pairs.
type Service struct {
	users       UserStore
	tokens      TokenStore
	issuer      *TokenService
	hasher      PasswordHasher
	mailer      Mailer
	frontendURL string

	now func() time.Time
}

func NewService(users UserStore, tokens TokenStore, issuer *TokenService, hasher PasswordHasher, mailer Mailer, frontendURL string) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		issuer:      issuer,
		hasher:      hasher,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates an unverified user and sends the verification link. On a
// delivery failure the user and token stay persisted; recovery is a later
// login attempt, which reissues, not a second registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	addr := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if addr == "" || name == "" || in.Password == "" {
		return ErrInvalidInput
	}

	existing, err := s.users.FindByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	user, err := s.users.Create(ctx, addr, name, hash)
	if err != nil {
		return err
	}

	return s.sendVerification(ctx, user)
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      User

	// VerificationSent reports the unverified branch that reissued a token
	// and sent a fresh email instead of completing the login.
	VerificationSent bool
}

func (s *Service) Login(ctx context.Context, emailAddr, password string) (*LoginResult, error) {
	addr := NormalizeEmail(emailAddr)
	if addr == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, addr)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Same failure as a wrong password: no user-enumeration signal.
		return nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		existing, err := s.tokens.FindByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil && !existing.Expired(s.now()) {
			// A live token is already out; do not send another email.
			return nil, ErrNotVerified
		}
		if err := s.sendVerification(ctx, user); err != nil {
			return nil, err
		}
		// The login does not resume here: the fresh token must be redeemed
		// before the next attempt can succeed.
		return &LoginResult{VerificationSent: true}, nil
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, PurposeLogin, LoginTTL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	// The login token is a bearer credential, not a redeemable one-shot
	// token; it is never written to the verification token store.
	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(LoginTTL),
		User:      user.Sanitized(),
	}, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.verifyPurpose(token, PurposeEmailVerification)
	if err != nil {
		return err
	}

	record, err := s.tokens.Find(ctx, claims.UserID, token, PurposeEmailVerification)
	if err != nil {
		return err
	}
	if record == nil {
		// Already redeemed or never issued.
		return ErrUnauthorized
	}
	// The record's expiry gates validity on its own, independent of the
	// signature's self-reported expiry.
	if record.Expired(s.now()) {
		return ErrTokenExpired
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnauthorized
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	consumed, err := s.tokens.Consume(ctx, claims.UserID, token, PurposeEmailVerification)
	if err != nil {
		return err
	}
	if !consumed {
		// A concurrent redemption consumed the token first.
		return ErrUnauthorized
	}

	return s.users.SetEmailVerified(ctx, user.ID)
}

func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	addr := NormalizeEmail(emailAddr)
	if addr == "" {
		return ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.IsEmailVerified {
		return ErrNotVerified
	}

	existing, err := s.tokens.FindByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if existing != nil && !existing.Expired(s.now()) {
		return ErrResetPending
	}

	token, err := s.issuer.Issue(user.ID, PurposeResetPassword, ResetPasswordTTL)
	if err != nil {
		return err
	}
	vt, err := s.tokens.Replace(ctx, user.ID, token, PurposeResetPassword, s.now().Add(ResetPasswordTTL))
	if err != nil {
		return err
	}
	if vt == nil {
		return ErrResetPending
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	content := email.PasswordResetEmail(link)
	if err := s.mailer.Send(ctx, user.Email, content.Subject, content.Text, content.HTML); err != nil {
		return ErrEmailDelivery
	}
	return nil
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}

	claims, err := s.verifyPurpose(token, PurposeResetPassword)
	if err != nil {
		return err
	}

	record, err := s.tokens.Find(ctx, claims.UserID, token, PurposeResetPassword)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrUnauthorized
	}
	if record.Expired(s.now()) {
		return ErrTokenExpired
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnauthorized
	}

	// Rejected before any store mutation: the hash stays put and the token
	// stays redeemable.
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	consumed, err := s.tokens.Consume(ctx, claims.UserID, token, PurposeResetPassword)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrUnauthorized
	}

	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// ChangePassword rotates the password of an authenticated user.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, confirmPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrInvalidInput
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnauthorized
	}
	if !s.hasher.Compare(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// Authenticate resolves a bearer login token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.verifyPurpose(token, PurposeLogin)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *Service) verifyPurpose(token string, purpose Purpose) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.Purpose != purpose {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (s *Service) sendVerification(ctx context.Context, user *User) error {
	token, err := s.issuer.Issue(user.ID, PurposeEmailVerification, EmailVerificationTTL)
	if err != nil {
		return err
	}

	vt, err := s.tokens.Replace(ctx, user.ID, token, PurposeEmailVerification, s.now().Add(EmailVerificationTTL))
	if err != nil {
		return err
	}
	if vt == nil {
		// A concurrent issuance installed a live token first.
		return ErrNotVerified
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)
	content := email.VerificationEmail(link)
	if err := s.mailer.Send(ctx, user.Email, content.Subject, content.Text, content.HTML); err != nil {
		return ErrEmailDelivery
	}
	return nil
}
