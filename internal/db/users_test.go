package db

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

func createTestUser(t *testing.T, repo *UserRepository, username, email string) string {
	t.Helper()

	user, err := repo.Create(CreateUserParams{
		Username:     username,
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "hash",
		AvatarURL:    "http://localhost:8080/media/blb_avatar",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return user.ID
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	createTestUser(t, repo, "alice", "alice@example.com")

	_, err := repo.Create(CreateUserParams{
		Username:     "alice",
		Email:        "other@example.com",
		FullName:     "Other",
		PasswordHash: "hash",
		AvatarURL:    "http://localhost:8080/media/blb_other",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create() with taken username error = %v, want ErrDuplicate", err)
	}

	_, err = repo.Create(CreateUserParams{
		Username:     "bob",
		Email:        "alice@example.com",
		FullName:     "Bob",
		PasswordHash: "hash",
		AvatarURL:    "http://localhost:8080/media/blb_bob",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create() with taken email error = %v, want ErrDuplicate", err)
	}
}

func TestFindByUsernameOrEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	id := createTestUser(t, repo, "alice", "alice@example.com")

	byUsername, err := repo.FindByUsernameOrEmail("alice")
	if err != nil {
		t.Fatalf("FindByUsernameOrEmail(username) error = %v", err)
	}
	if byUsername.ID != id {
		t.Fatalf("ID = %q, want %q", byUsername.ID, id)
	}

	byEmail, err := repo.FindByUsernameOrEmail("alice@example.com")
	if err != nil {
		t.Fatalf("FindByUsernameOrEmail(email) error = %v", err)
	}
	if byEmail.ID != id {
		t.Fatalf("ID = %q, want %q", byEmail.ID, id)
	}

	if _, err := repo.FindByUsernameOrEmail("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByUsernameOrEmail(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestFindByUsernameAndFindByEmailAreColumnScoped(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	id := createTestUser(t, repo, "alice", "alice@example.com")

	byUsername, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if byUsername.ID != id {
		t.Fatalf("ID = %q, want %q", byUsername.ID, id)
	}

	// The email only lives in the email column.
	if _, err := repo.FindByUsername("alice@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByUsername(email) error = %v, want ErrNotFound", err)
	}

	byEmail, err := repo.FindByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if byEmail.ID != id {
		t.Fatalf("ID = %q, want %q", byEmail.ID, id)
	}

	if _, err := repo.FindByEmail("alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByEmail(username) error = %v, want ErrNotFound", err)
	}
}

func TestRefreshTokenHashLifecycle(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	id := createTestUser(t, repo, "alice", "alice@example.com")

	if err := repo.SetRefreshTokenHash(id, "hash-1"); err != nil {
		t.Fatalf("SetRefreshTokenHash() error = %v", err)
	}

	user, err := repo.FindByID(id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != "hash-1" {
		t.Fatalf("RefreshTokenHash = %v, want %q", user.RefreshTokenHash, "hash-1")
	}

	// A second set overwrites, it does not accumulate.
	if err := repo.SetRefreshTokenHash(id, "hash-2"); err != nil {
		t.Fatalf("SetRefreshTokenHash() error = %v", err)
	}
	user, err = repo.FindByID(id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != "hash-2" {
		t.Fatalf("RefreshTokenHash = %v, want %q", user.RefreshTokenHash, "hash-2")
	}

	if err := repo.ClearRefreshTokenHash(id); err != nil {
		t.Fatalf("ClearRefreshTokenHash() error = %v", err)
	}
	user, err = repo.FindByID(id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if user.RefreshTokenHash != nil {
		t.Fatalf("RefreshTokenHash = %q, want nil", *user.RefreshTokenHash)
	}

	// Clearing again is a no-op, not an error.
	if err := repo.ClearRefreshTokenHash(id); err != nil {
		t.Fatalf("ClearRefreshTokenHash() second call error = %v", err)
	}
}

func TestSetRefreshTokenHashUnknownUser(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	if err := repo.SetRefreshTokenHash("usr_missing", "hash"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetRefreshTokenHash() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateAccountDetailsPatchesSelectively(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	id := createTestUser(t, repo, "alice", "alice@example.com")

	newName := "Alice Cooper"
	if err := repo.UpdateAccountDetails(id, &newName, nil); err != nil {
		t.Fatalf("UpdateAccountDetails() error = %v", err)
	}

	user, err := repo.FindByID(id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if user.FullName != "Alice Cooper" {
		t.Fatalf("FullName = %q, want %q", user.FullName, "Alice Cooper")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("Email = %q, want unchanged %q", user.Email, "alice@example.com")
	}
}

func TestUpdateAccountDetailsRejectsTakenEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	id := createTestUser(t, repo, "alice", "alice@example.com")
	createTestUser(t, repo, "bob", "bob@example.com")

	taken := "bob@example.com"
	if err := repo.UpdateAccountDetails(id, nil, &taken); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("UpdateAccountDetails() error = %v, want ErrDuplicate", err)
	}
}
