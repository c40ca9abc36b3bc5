package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jiashuyu/belay/internal/models"
)

func TestUserRepo_Create(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	user := createTestUser(t, repo, "testuser_create")
	if user.ID == 0 {
		t.Fatal("Create did not assign an ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create did not set CreatedAt")
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID after Create: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil after Create")
	}
	if got.Name != user.Name {
		t.Errorf("Name = %q, want %q", got.Name, user.Name)
	}
	if got.APIKey != user.APIKey {
		t.Errorf("APIKey = %q, want %q", got.APIKey, user.APIKey)
	}
}

func TestUserRepo_Create_DuplicateAPIKey(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	first := createTestUser(t, repo, "testuser_dup")
	second := &models.User{
		Name:         "testuser_dup",
		PasswordHash: first.PasswordHash,
		APIKey:       first.APIKey,
	}
	if err := repo.Create(ctx, second); err == nil {
		t.Fatal("expected error for duplicate api key, got nil")
	}
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)

	got, err := repo.GetByID(context.Background(), 999999999)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestUserRepo_GetByAPIKey(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	user := createTestUser(t, repo, "testuser_key")

	got, err := repo.GetByAPIKey(ctx, user.APIKey)
	if err != nil {
		t.Fatalf("GetByAPIKey: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("GetByAPIKey = %+v, want user %d", got, user.ID)
	}

	got, err = repo.GetByAPIKey(ctx, "no-such-key")
	if err != nil {
		t.Fatalf("GetByAPIKey unknown: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown key, got %+v", got)
	}
}

func TestUserRepo_GetByName_NotUnique(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	name := "testuser_shared_" + uuid.NewString()
	a := createTestUser(t, repo, name)
	b := createTestUser(t, repo, name)

	got, err := repo.GetByName(ctx, name)
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("ids = [%d %d], want [%d %d]", got[0].ID, got[1].ID, a.ID, b.ID)
	}
}

func TestUserRepo_Update(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	user := createTestUser(t, repo, "testuser_update")
	key := user.APIKey

	user.Name = "testuser_renamed"
	user.PasswordHash = "new-hash"
	user.APIKey = "ignored"
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "testuser_renamed" {
		t.Errorf("Name = %q, want %q", got.Name, "testuser_renamed")
	}
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "new-hash")
	}
	if got.APIKey != key {
		t.Errorf("APIKey changed to %q", got.APIKey)
	}
}
