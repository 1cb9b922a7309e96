package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/testutil"
)

func TestUserRepository_CreateAndFindByEmail(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, models.User{Email: " Barista@Kafe.com ", Name: "Barista"}, "gizli-sifre")
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected non-empty ID")
	}

	found, err := repo.FindByEmail(ctx, "barista@kafe.com")
	if err != nil {
		t.Fatalf("finding user: %v", err)
	}
	if found.Name != "Barista" {
		t.Errorf("expected name 'Barista', got '%s'", found.Name)
	}
	if !repository.CheckPassword(found, "gizli-sifre") {
		t.Error("expected stored password to match")
	}
	if repository.CheckPassword(found, "yanlis") {
		t.Error("expected wrong password to be rejected")
	}
}

func TestUserRepository_FindMissing(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)

	_, err := repo.FindByEmail(context.Background(), "nobody@kafe.com")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_OIDCOnlyAccountHasNoPassword(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	subject := "sub-123"
	created, err := repo.Create(ctx, models.User{Email: "sso@kafe.com", OIDCSubject: &subject}, "")
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	found, err := repo.FindByOIDCSubject(ctx, "sub-123")
	if err != nil {
		t.Fatalf("finding by subject: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected %s, got %s", created.ID, found.ID)
	}
	if repository.CheckPassword(found, "") {
		t.Error("account without password must not accept an empty password")
	}
}

func TestUserRepository_SetPasswordAndDisabled(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	created, _ := repo.Create(ctx, models.User{Email: "admin@kafe.com"}, "eski")
	if err := repo.SetPassword(ctx, created.ID, "yeni"); err != nil {
		t.Fatalf("setting password: %v", err)
	}
	if err := repo.SetDisabled(ctx, created.ID, true); err != nil {
		t.Fatalf("disabling: %v", err)
	}

	found, _ := repo.FindByID(ctx, created.ID)
	if !repository.CheckPassword(found, "yeni") {
		t.Error("expected new password to match")
	}
	if !found.Disabled {
		t.Error("expected account to be disabled")
	}

	if err := repo.SetDisabled(ctx, "missing", true); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestUserRepository_LinkOIDCSubjectAndCount(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	created, _ := repo.Create(ctx, models.User{Email: "a@kafe.com"}, "x")
	repo.Create(ctx, models.User{Email: "b@kafe.com"}, "y")

	if err := repo.LinkOIDCSubject(ctx, created.ID, "sub-a"); err != nil {
		t.Fatalf("linking subject: %v", err)
	}
	found, err := repo.FindByOIDCSubject(ctx, "sub-a")
	if err != nil || found.ID != created.ID {
		t.Fatalf("expected linked user, got %+v (%v)", found, err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 users, got %d", count)
	}
}
