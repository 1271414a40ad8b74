package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/nerrad567/enodebd/internal/infrastructure/database/databasetest"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	return databasetest.Open(t).DB
}

func createOperator(t *testing.T, repo OperatorRepository, username, password string, role Role) *Operator {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	op := &Operator{Username: username, DisplayName: username, PasswordHash: hash, Role: role, IsActive: true}
	if err := repo.Create(context.Background(), op); err != nil {
		t.Fatalf("Create(%s): %v", username, err)
	}
	return op
}
