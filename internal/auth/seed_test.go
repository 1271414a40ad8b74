package auth

import (
	"context"
	"log/slog"
	"testing"
)

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	repo := NewOperatorRepository(testDB(t))

	password, err := SeedAdmin(ctx, repo, slog.Default())
	if err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	if len(password) != 32 {
		t.Fatalf("password %q, want 32 hex characters", password)
	}

	admin, err := repo.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if admin.Role != RoleAdmin || !admin.IsActive {
		t.Errorf("admin = %+v", admin)
	}
	if ok, _ := VerifyPassword(password, admin.PasswordHash); !ok {
		t.Error("returned password does not verify")
	}

	again, err := SeedAdmin(ctx, repo, slog.Default())
	if err != nil || again != "" {
		t.Errorf("second SeedAdmin = %q, %v; want no-op", again, err)
	}
}
