package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TokenRepository persists refresh tokens.
type TokenRepository interface {
	Create(ctx context.Context, t *RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*RefreshToken, error)
	Rotate(ctx context.Context, oldID string, next *RefreshToken) error
	RevokeFamily(ctx context.Context, familyID string) error
	RevokeOperator(ctx context.Context, operatorID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SQLiteTokenRepository stores tokens in the refresh_tokens table.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewTokenRepository returns a repository over db.
func NewTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

// HashToken is the stored form of a raw refresh token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertToken(ctx context.Context, db execer, t *RefreshToken) error {
	if t.ID == "" {
		t.ID = "rt-" + uuid.NewString()[:16]
	}
	if t.FamilyID == "" {
		t.FamilyID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC().Truncate(time.Second)

	_, err := db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, operator_id, family_id, token_hash, expires_at, revoked, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OperatorID, t.FamilyID, t.TokenHash,
		t.ExpiresAt.UTC().Format(time.RFC3339), boolToInt(t.Revoked), t.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// Create inserts t, assigning an ID and a new family when empty.
func (r *SQLiteTokenRepository) Create(ctx context.Context, t *RefreshToken) error {
	if err := insertToken(ctx, r.db, t); err != nil {
		return fmt.Errorf("creating refresh token: %w", err)
	}
	return nil
}

// GetByHash returns the token with the given hash or ErrTokenInvalid.
func (r *SQLiteTokenRepository) GetByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	var (
		t                    RefreshToken
		revoked              int
		expiresAt, createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, operator_id, family_id, token_hash, expires_at, revoked, created_at
		 FROM refresh_tokens WHERE token_hash = ?`, hash,
	).Scan(&t.ID, &t.OperatorID, &t.FamilyID, &t.TokenHash, &expiresAt, &revoked, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("getting refresh token: %w", err)
	}
	t.Revoked = revoked != 0
	t.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt) //nolint:errcheck // written by insertToken
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // written by insertToken
	return &t, nil
}

// Rotate revokes oldID and inserts next in one transaction.
func (r *SQLiteTokenRepository) Rotate(ctx context.Context, oldID string, next *RefreshToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rotation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "UPDATE refresh_tokens SET revoked = 1 WHERE id = ?", oldID); err != nil {
		return fmt.Errorf("revoking rotated token: %w", err)
	}
	if err := insertToken(ctx, tx, next); err != nil {
		return fmt.Errorf("inserting rotated token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rotation: %w", err)
	}
	return nil
}

// RevokeFamily revokes every token descended from the same login.
func (r *SQLiteTokenRepository) RevokeFamily(ctx context.Context, familyID string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked = 1 WHERE family_id = ?", familyID); err != nil {
		return fmt.Errorf("revoking token family: %w", err)
	}
	return nil
}

// RevokeOperator revokes every token of an operator.
func (r *SQLiteTokenRepository) RevokeOperator(ctx context.Context, operatorID string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked = 1 WHERE operator_id = ?", operatorID); err != nil {
		return fmt.Errorf("revoking operator tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens expired at now and returns how many.
func (r *SQLiteTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at <= ?", now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	n, _ := res.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return n, nil
}
