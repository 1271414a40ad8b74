package auth

import (
	"context"
	"errors"
	"testing"
)

func TestOperatorRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOperatorRepository(testDB(t))

	noc := createOperator(t, repo, "noc", "pw", RoleOperator)
	createOperator(t, repo, "alice", "pw", RoleViewer)

	got, err := repo.GetByUsername(ctx, "noc")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != noc.ID || got.Role != RoleOperator || !got.IsActive {
		t.Errorf("got %+v", got)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Username != "alice" {
		t.Errorf("List = %+v, want alice then noc", list)
	}

	if err := repo.SetActive(ctx, noc.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	got, _ = repo.GetByID(ctx, noc.ID)
	if got.IsActive {
		t.Error("operator still active")
	}

	if n, _ := repo.Count(ctx); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestOperatorRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewOperatorRepository(testDB(t))
	createOperator(t, repo, "noc", "pw", RoleOperator)

	tests := []struct {
		name string
		op   *Operator
		want error
	}{
		{"duplicate", &Operator{Username: "noc", Role: RoleViewer}, ErrUsernameExists},
		{"bad username", &Operator{Username: "no spaces", Role: RoleViewer}, ErrInvalidUsername},
		{"bad role", &Operator{Username: "bob", Role: "owner"}, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(ctx, tt.op); !errors.Is(err, tt.want) {
				t.Errorf("Create err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := repo.GetByID(ctx, "op-missing"); !errors.Is(err, ErrOperatorNotFound) {
		t.Errorf("GetByID err = %v, want ErrOperatorNotFound", err)
	}
	if err := repo.SetActive(ctx, "op-missing", true); !errors.Is(err, ErrOperatorNotFound) {
		t.Errorf("SetActive err = %v, want ErrOperatorNotFound", err)
	}
}
