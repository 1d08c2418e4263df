package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hash:" + password, nil }
func (fakeHasher) Compare(hash, password string) bool   { return hash == "hash:"+password }

type memUserStore struct {
	seq   int
	users map[string]*User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]*User{}}
}

func (m *memUserStore) Create(_ context.Context, email, name, passwordHash string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}
	m.seq++
	u := &User{
		ID:           fmt.Sprintf("user-%d", m.seq),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
	}
	m.users[u.ID] = u
	out := *u
	return &out, nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == NormalizeEmail(email) {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) FindByID(_ context.Context, id string) (*User, error) {
	if u, ok := m.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, nil
}

func (m *memUserStore) SetEmailVerified(_ context.Context, userID string) error {
	u, ok := m.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.IsEmailVerified = true
	return nil
}

func (m *memUserStore) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.LastLogin = &at
	return nil
}

func (m *memUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, ok := m.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.PasswordHash = passwordHash
	return nil
}

// memTokenStore mirrors the single-row-per-user semantics of the SQL store:
// Replace refuses while a live token exists, Consume deletes exactly once.
type memTokenStore struct {
	seq     int
	records map[string]*VerificationToken
	now     func() time.Time
}

func newMemTokenStore(now func() time.Time) *memTokenStore {
	return &memTokenStore{records: map[string]*VerificationToken{}, now: now}
}

func (m *memTokenStore) FindByUser(_ context.Context, userID string) (*VerificationToken, error) {
	if rec, ok := m.records[userID]; ok {
		out := *rec
		return &out, nil
	}
	return nil, nil
}

func (m *memTokenStore) Find(_ context.Context, userID, token string, purpose Purpose) (*VerificationToken, error) {
	rec, ok := m.records[userID]
	if !ok || rec.Token != token || rec.Purpose != purpose {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

func (m *memTokenStore) Replace(_ context.Context, userID, token string, purpose Purpose, expiresAt time.Time) (*VerificationToken, error) {
	if rec, ok := m.records[userID]; ok && !rec.Expired(m.now()) {
		return nil, nil
	}
	m.seq++
	rec := &VerificationToken{
		ID:        fmt.Sprintf("token-%d", m.seq),
		UserID:    userID,
		Token:     token,
		Purpose:   purpose,
		ExpiresAt: expiresAt,
		CreatedAt: m.now(),
	}
	m.records[userID] = rec
	out := *rec
	return &out, nil
}

func (m *memTokenStore) Consume(_ context.Context, userID, token string, purpose Purpose) (bool, error) {
	rec, ok := m.records[userID]
	if !ok || rec.Token != token || rec.Purpose != purpose {
		return false, nil
	}
	delete(m.records, userID)
	return true, nil
}

type sentMail struct {
	to      string
	subject string
}

type memMailer struct {
	sent []sentMail
	fail bool
}

func (m *memMailer) Send(_ context.Context, to, subject, _, _ string) error {
	if m.fail {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

type fixture struct {
	svc    *Service
	users  *memUserStore
	tokens *memTokenStore
	mailer *memMailer
	clock  *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{clock: &clock}
	now := func() time.Time { return *f.clock }

	f.users = newMemUserStore()
	f.tokens = newMemTokenStore(now)
	f.mailer = &memMailer{}
	f.svc = NewService(f.users, f.tokens, NewTokenService([]byte("test-secret")), fakeHasher{}, f.mailer, "https://app.example.com/")
	f.svc.now = now
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *fixture) register(t *testing.T, email, password string) *User {
	t.Helper()
	require.NoError(t, f.svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Name:     "Test User",
		Password: password,
	}))
	user, err := f.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func (f *fixture) verify(t *testing.T, user *User) {
	t.Helper()
	rec, err := f.tokens.FindByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NoError(t, f.svc.VerifyEmail(context.Background(), rec.Token))
}

func TestRegisterCreatesUnverifiedUserWithToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	require.False(t, user.IsEmailVerified)
	require.Equal(t, "hash:Sup3r$ecret", user.PasswordHash)

	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, PurposeEmailVerification, rec.Purpose)
	require.Equal(t, f.clock.Add(EmailVerificationTTL), rec.ExpiresAt)

	require.Len(t, f.mailer.sent, 1)
	require.Equal(t, "alice@example.com", f.mailer.sent[0].to)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "alice@example.com", "Sup3r$ecret")

	err := f.svc.Register(ctx, RegisterInput{Email: "alice@example.com", Name: "Again", Password: "Sup3r$ecret"})
	require.ErrorIs(t, err, ErrEmailTaken)

	// A case variant is the same mailbox.
	err = f.svc.Register(ctx, RegisterInput{Email: "Alice@Example.COM", Name: "Again", Password: "Sup3r$ecret"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterDeliveryFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mailer.fail = true

	err := f.svc.Register(ctx, RegisterInput{Email: "alice@example.com", Name: "Alice", Password: "Sup3r$ecret"})
	require.ErrorIs(t, err, ErrEmailDelivery)

	user, err := f.users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)

	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.VerifyEmail(ctx, rec.Token))

	updated, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, updated.IsEmailVerified)

	gone, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	// Replay of the consumed token.
	require.ErrorIs(t, f.svc.VerifyEmail(ctx, rec.Token), ErrUnauthorized)
}

func TestVerifyEmailRejectsWrongPurpose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	f.verify(t, user)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, PurposeResetPassword, rec.Purpose)

	// A reset token redeemed through the verification flow.
	require.ErrorIs(t, f.svc.VerifyEmail(ctx, rec.Token), ErrUnauthorized)
}

func TestConfirmResetRejectsVerificationToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)

	err = f.svc.ConfirmPasswordReset(ctx, rec.Token, "N3w$ecret!", "N3w$ecret!")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyEmailRecordExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)

	// The stored record expires on the service clock even though the
	// signature, checked against the wall clock, is still fresh.
	f.advance(2 * time.Hour)
	require.ErrorIs(t, f.svc.VerifyEmail(ctx, rec.Token), ErrTokenExpired)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	f.verify(t, user)

	// Unknown email and wrong password fail identically.
	_, err := f.svc.Login(ctx, "nobody@example.com", "Sup3r$ecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnverifiedWithLiveToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "alice@example.com", "Sup3r$ecret")
	sentBefore := len(f.mailer.sent)

	_, err := f.svc.Login(ctx, "alice@example.com", "Sup3r$ecret")
	require.ErrorIs(t, err, ErrNotVerified)
	require.Len(t, f.mailer.sent, sentBefore)
}

func TestLoginUnverifiedWithExpiredTokenReissues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	stale, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)

	f.advance(2 * time.Hour)
	sentBefore := len(f.mailer.sent)

	result, err := f.svc.Login(ctx, "alice@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	require.True(t, result.VerificationSent)
	require.Empty(t, result.Token)
	require.Len(t, f.mailer.sent, sentBefore+1)

	fresh, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	require.NotEqual(t, stale.Token, fresh.Token)
	require.Equal(t, f.clock.Add(EmailVerificationTTL), fresh.ExpiresAt)
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	f.verify(t, user)

	result, err := f.svc.Login(ctx, "alice@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	require.False(t, result.VerificationSent)
	require.NotEmpty(t, result.Token)
	require.Equal(t, f.clock.Add(LoginTTL), result.ExpiresAt)
	require.Empty(t, result.User.PasswordHash)
	require.NotNil(t, result.User.LastLogin)

	// The bearer token round-trips through Authenticate.
	authed, err := f.svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)
}

func TestAuthenticateRejectsVerificationToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, rec.Token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRequestPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.svc.RequestPasswordReset(ctx, "nobody@example.com"), ErrUserNotFound)

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	require.ErrorIs(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"), ErrNotVerified)

	f.verify(t, user)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))

	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, PurposeResetPassword, rec.Purpose)
	require.Equal(t, f.clock.Add(ResetPasswordTTL), rec.ExpiresAt)

	// A second request while the first token is live.
	require.ErrorIs(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"), ErrResetPending)

	// After expiry a new request goes through.
	f.advance(20 * time.Minute)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
}

func TestConfirmPasswordResetMismatchLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	f.verify(t, user)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))

	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)

	err = f.svc.ConfirmPasswordReset(ctx, rec.Token, "N3w$ecret!", "different")
	require.ErrorIs(t, err, ErrPasswordMismatch)

	// The token survives a mismatched confirmation and the hash is unchanged.
	still, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, still)

	unchanged, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "hash:Sup3r$ecret", unchanged.PasswordHash)

	// The same token then completes a matching confirmation.
	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, rec.Token, "N3w$ecret!", "N3w$ecret!"))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	f.verify(t, user)

	err := f.svc.ChangePassword(ctx, user.ID, "wrong", "N3w$ecret!", "N3w$ecret!")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	err = f.svc.ChangePassword(ctx, user.ID, "Sup3r$ecret", "N3w$ecret!", "other")
	require.ErrorIs(t, err, ErrPasswordMismatch)

	require.NoError(t, f.svc.ChangePassword(ctx, user.ID, "Sup3r$ecret", "N3w$ecret!", "N3w$ecret!"))

	_, err = f.svc.Login(ctx, "alice@example.com", "N3w$ecret!")
	require.NoError(t, err)
}

func TestFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "Sup3r$ecret")
	f.verify(t, user)

	first, err := f.svc.Login(ctx, "alice@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	require.NotEmpty(t, first.Token)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com"))
	rec, err := f.tokens.FindByUser(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, rec.Token, "N3w$ecret!", "N3w$ecret!"))

	_, err = f.svc.Login(ctx, "alice@example.com", "Sup3r$ecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	second, err := f.svc.Login(ctx, "alice@example.com", "N3w$ecret!")
	require.NoError(t, err)
	require.NotEmpty(t, second.Token)
}
