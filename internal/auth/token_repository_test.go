package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenRepositoryRotate(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	op := createOperator(t, NewOperatorRepository(db), "noc", "pw", RoleOperator)
	repo := NewTokenRepository(db)

	first := &RefreshToken{OperatorID: op.ID, TokenHash: HashToken("one"), ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.FamilyID == "" {
		t.Fatal("family not assigned")
	}

	second := &RefreshToken{OperatorID: op.ID, FamilyID: first.FamilyID, TokenHash: HashToken("two"), ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Rotate(ctx, first.ID, second); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	old, err := repo.GetByHash(ctx, HashToken("one"))
	if err != nil {
		t.Fatalf("GetByHash(one): %v", err)
	}
	if !old.Revoked {
		t.Error("rotated token not revoked")
	}

	if err := repo.RevokeFamily(ctx, first.FamilyID); err != nil {
		t.Fatalf("RevokeFamily: %v", err)
	}
	cur, _ := repo.GetByHash(ctx, HashToken("two"))
	if !cur.Revoked {
		t.Error("family member not revoked")
	}

	if _, err := repo.GetByHash(ctx, HashToken("three")); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("unknown token err = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenRepositoryDeleteExpired(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	op := createOperator(t, NewOperatorRepository(db), "noc", "pw", RoleOperator)
	repo := NewTokenRepository(db)

	now := time.Now()
	for i, exp := range []time.Time{now.Add(-time.Hour), now.Add(-time.Minute), now.Add(time.Hour)} {
		tok := &RefreshToken{OperatorID: op.ID, TokenHash: HashToken(string(rune('a' + i))), ExpiresAt: exp}
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
}
