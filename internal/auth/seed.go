package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// SeedAdmin creates an "admin" account with a random password when no
// operators exist and returns that password. It returns "" when accounts
// already exist.
func SeedAdmin(ctx context.Context, repo OperatorRepository, logger *slog.Logger) (string, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return "", nil
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating admin password: %w", err)
	}
	password := hex.EncodeToString(b)

	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	if err := repo.Create(ctx, &Operator{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: hash,
		Role:         RoleAdmin,
		IsActive:     true,
	}); err != nil {
		return "", fmt.Errorf("creating admin: %w", err)
	}

	logger.Warn("initial admin account created",
		"username", "admin",
		"password", password,
		"action_required", "log in and replace this account",
	)
	return password, nil
}
