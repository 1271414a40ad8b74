package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OperatorRepository persists operator accounts.
type OperatorRepository interface {
	Create(ctx context.Context, op *Operator) error
	GetByID(ctx context.Context, id string) (*Operator, error)
	GetByUsername(ctx context.Context, username string) (*Operator, error)
	List(ctx context.Context) ([]Operator, error)
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (int, error)
}

// SQLiteOperatorRepository stores operators in the operators table.
type SQLiteOperatorRepository struct {
	db *sql.DB
}

// NewOperatorRepository returns a repository over db.
func NewOperatorRepository(db *sql.DB) *SQLiteOperatorRepository {
	return &SQLiteOperatorRepository{db: db}
}

const operatorColumns = "id, username, display_name, password_hash, role, is_active, created_at, updated_at"

// Create inserts op, assigning an ID when empty.
func (r *SQLiteOperatorRepository) Create(ctx context.Context, op *Operator) error {
	if !IsValidUsername(op.Username) {
		return ErrInvalidUsername
	}
	if !IsValidRole(op.Role) {
		return ErrInvalidRole
	}
	if op.ID == "" {
		op.ID = "op-" + uuid.NewString()[:8]
	}
	now := time.Now().UTC().Truncate(time.Second)
	op.CreatedAt, op.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO operators (`+operatorColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.Username, op.DisplayName, op.PasswordHash, string(op.Role),
		boolToInt(op.IsActive), now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating operator: %w", err)
	}
	return nil
}

// GetByID returns the operator with id or ErrOperatorNotFound.
func (r *SQLiteOperatorRepository) GetByID(ctx context.Context, id string) (*Operator, error) {
	return scanOperator(r.db.QueryRowContext(ctx,
		"SELECT "+operatorColumns+" FROM operators WHERE id = ?", id))
}

// GetByUsername returns the operator called username or ErrOperatorNotFound.
func (r *SQLiteOperatorRepository) GetByUsername(ctx context.Context, username string) (*Operator, error) {
	return scanOperator(r.db.QueryRowContext(ctx,
		"SELECT "+operatorColumns+" FROM operators WHERE username = ?", username))
}

// List returns every operator ordered by username.
func (r *SQLiteOperatorRepository) List(ctx context.Context) ([]Operator, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+operatorColumns+" FROM operators ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("listing operators: %w", err)
	}
	defer rows.Close()

	ops := []Operator{}
	for rows.Next() {
		op, err := scanOperator(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operators: %w", err)
	}
	return ops, nil
}

// SetActive enables or disables an account.
func (r *SQLiteOperatorRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE operators SET is_active = ?, updated_at = ? WHERE id = ?",
		boolToInt(active), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating operator: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrOperatorNotFound
	}
	return nil
}

// Count returns the number of accounts.
func (r *SQLiteOperatorRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM operators").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting operators: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOperator(s scanner) (*Operator, error) {
	var (
		op                   Operator
		role                 string
		active               int
		createdAt, updatedAt string
	)
	err := s.Scan(&op.ID, &op.Username, &op.DisplayName, &op.PasswordHash, &role, &active, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning operator: %w", err)
	}
	op.Role = Role(role)
	op.IsActive = active != 0
	op.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // written by Create
	op.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // written by Create
	return &op, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
