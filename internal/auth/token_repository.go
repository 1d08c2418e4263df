package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository persists verification tokens. The table carries a unique
// index on user_id, so the at-most-one-token-per-user invariant is enforced
// by the store rather than by check-then-act logic in the flows.
type TokenRepository struct {
	DB *pgxpool.Pool
}

func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{DB: db}
}

const tokenColumns = `id, user_id, token, purpose, expires_at, created_at`

// FindByUser returns the user's token row regardless of expiry, or nil.
func (r *TokenRepository) FindByUser(ctx context.Context, userID string) (*VerificationToken, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+tokenColumns+` FROM verification_tokens WHERE user_id = $1
	`, userID)
	vt, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return vt, err
}

// Find looks a token up by the exact (user, token, purpose) triple. Expiry is
// deliberately not part of the predicate: the flows treat the record's expiry
// as an authority of its own and report it distinctly.
func (r *TokenRepository) Find(ctx context.Context, userID, token string, purpose Purpose) (*VerificationToken, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM verification_tokens
		WHERE user_id = $1 AND token = $2 AND purpose = $3
	`, userID, token, purpose)
	vt, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return vt, err
}

// Replace installs a fresh token for the user in one statement: it inserts
// when no row exists and overwrites an expired row, which is also how expired
// rows get collected. When the user already holds a live token the statement
// matches nothing and Replace returns nil; the caller lost the issuance race
// and must not send another email.
func (r *TokenRepository) Replace(ctx context.Context, userID, token string, purpose Purpose, expiresAt time.Time) (*VerificationToken, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO verification_tokens (id, user_id, token, purpose, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET id = EXCLUDED.id,
		    token = EXCLUDED.token,
		    purpose = EXCLUDED.purpose,
		    expires_at = EXCLUDED.expires_at,
		    created_at = NOW()
		WHERE verification_tokens.expires_at <= NOW()
		RETURNING `+tokenColumns,
		uuid.NewString(), userID, token, purpose, expiresAt)

	vt, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return vt, err
}

// Consume atomically deletes the token row. Exactly one of any number of
// racing redemptions observes true; replay gets false.
func (r *TokenRepository) Consume(ctx context.Context, userID, token string, purpose Purpose) (bool, error) {
	tag, err := r.DB.Exec(ctx, `
		DELETE FROM verification_tokens
		WHERE user_id = $1 AND token = $2 AND purpose = $3
	`, userID, token, purpose)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanToken(row pgx.Row) (*VerificationToken, error) {
	var vt VerificationToken
	if err := row.Scan(&vt.ID, &vt.UserID, &vt.Token, &vt.Purpose, &vt.ExpiresAt, &vt.CreatedAt); err != nil {
		return nil, err
	}
	return &vt, nil
}
