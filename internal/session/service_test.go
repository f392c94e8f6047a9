package session

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstream/internal/apperror"
	"vidstream/internal/auth"
	"vidstream/internal/blob"
	"vidstream/internal/db"
)

type testEnv struct {
	service *Service
	users   *db.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	blobService, err := blob.NewService(t.TempDir(), 1024*1024)
	require.NoError(t, err)

	users := db.NewUserRepository(database)
	blobs := db.NewBlobRepository(database)
	tokens := auth.NewTokenService(
		"access-secret-0123456789abcdef0123",
		"refresh-secret-0123456789abcdef012",
		15*time.Minute,
		24*time.Hour,
	)

	return &testEnv{
		service: NewService(users, tokens, blobService, blobs, "http://localhost:8080"),
		users:   users,
	}
}

func (e *testEnv) register(t *testing.T, username, email, password string) string {
	t.Helper()

	user, err := e.service.Register(context.Background(), RegisterInput{
		FullName: "Test User",
		Email:    email,
		Username: username,
		Password: password,
		Avatar:   &FileUpload{Name: "avatar.png", Data: bytes.NewReader(testPNG(t))},
	})
	require.NoError(t, err)
	return user.ID
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestRegisterStripsCredentialsAndStoresAvatar(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.service.Register(context.Background(), RegisterInput{
		FullName: "Alice",
		Email:    "Alice@Example.com",
		Username: "Alice",
		Password: "password123",
		Avatar:   &FileUpload{Name: "avatar.png", Data: bytes.NewReader(testPNG(t))},
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.Nil(t, user.RefreshTokenHash)
	assert.Contains(t, user.AvatarURL, "/media/")
}

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "password123")

	_, err := env.service.Register(context.Background(), RegisterInput{
		FullName: "Imposter",
		Email:    "other@example.com",
		Username: "alice",
		Password: "password123",
		Avatar:   &FileUpload{Name: "avatar.png", Data: bytes.NewReader(testPNG(t))},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Conflict))

	_, err = env.service.Register(context.Background(), RegisterInput{
		FullName: "Imposter",
		Email:    "alice@example.com",
		Username: "other",
		Password: "password123",
		Avatar:   &FileUpload{Name: "avatar.png", Data: bytes.NewReader(testPNG(t))},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Conflict))
}

func TestRegisterAllowsUsernameMatchingAnotherEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "password123")

	// Uniqueness is per column: a username colliding with someone
	// else's email (or vice versa) is not a conflict.
	user, err := env.service.Register(context.Background(), RegisterInput{
		FullName: "Bob",
		Email:    "bob@example.com",
		Username: "alice@example.com",
		Password: "password123",
		Avatar:   &FileUpload{Name: "avatar.png", Data: bytes.NewReader(testPNG(t))},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Username)

	user, err = env.service.Register(context.Background(), RegisterInput{
		FullName: "Carol",
		Email:    "alice",
		Username: "carol",
		Password: "password123",
		Avatar:   &FileUpload{Name: "avatar.png", Data: bytes.NewReader(testPNG(t))},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Email)
}

func TestRegisterRequiresAvatar(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), RegisterInput{
		FullName: "Alice",
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Validation))
}

func TestLoginIssuesVerifiablePairAndPersistsHash(t *testing.T) {
	env := newTestEnv(t)
	userID := env.register(t, "alice", "alice@example.com", "password123")

	user, pair, err := env.service.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Empty(t, user.PasswordHash)
	require.NotEmpty(t, pair.RefreshToken)

	stored, err := env.users.FindByID(userID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.Equal(t, auth.HashRefreshToken(pair.RefreshToken), *stored.RefreshTokenHash)

	// Email works as the identifier too.
	_, _, err = env.service.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
}

func TestLoginWrongPasswordLeavesSessionUntouched(t *testing.T) {
	env := newTestEnv(t)
	userID := env.register(t, "alice", "alice@example.com", "password123")

	_, pair, err := env.service.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)

	_, _, err = env.service.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Unauthorized))

	// The failed attempt must not revoke the active session.
	stored, err := env.users.FindByID(userID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.Equal(t, auth.HashRefreshToken(pair.RefreshToken), *stored.RefreshTokenHash)
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.service.Login(context.Background(), "ghost", "password123")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
}

func TestSecondLoginRevokesFirstSession(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "password123")

	_, first, err := env.service.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)

	_, _, err = env.service.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)

	_, _, err = env.service.Refresh(context.Background(), first.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Unauthorized))
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "password123")

	_, pair, err := env.service.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)

	_, rotated, err := env.service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.RefreshToken)

	// The consumed token is dead, the rotated one works.
	_, _, err = env.service.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Unauthorized))

	_, _, err = env.service.Refresh(context.Background(), rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshAfterLogoutFails(t *testing.T) {
	env := newTestEnv(t)
	userID := env.register(t, "alice", "alice@example.com", "password123")

	_, pair, err := env.service.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)

	require.NoError(t, env.service.Logout(context.Background(), userID))
	// Logout twice is fine.
	require.NoError(t, env.service.Logout(context.Background(), userID))

	_, _, err = env.service.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Unauthorized))
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.service.Refresh(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Unauthorized))

	_, _, err = env.service.Refresh(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Validation))
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	userID := env.register(t, "alice", "alice@example.com", "password123")

	err := env.service.ChangePassword(context.Background(), userID, "wrong", "newpassword")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Unauthorized))

	require.NoError(t, env.service.ChangePassword(context.Background(), userID, "password123", "newpassword"))

	_, _, err = env.service.Login(context.Background(), "alice", "password123")
	require.Error(t, err)

	_, _, err = env.service.Login(context.Background(), "alice", "newpassword")
	require.NoError(t, err)
}

func TestUpdateAccountConflictOnTakenEmail(t *testing.T) {
	env := newTestEnv(t)
	aliceID := env.register(t, "alice", "alice@example.com", "password123")
	env.register(t, "bob", "bob@example.com", "password123")

	taken := "bob@example.com"
	_, err := env.service.UpdateAccount(context.Background(), aliceID, nil, &taken)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.Conflict))

	newName := "Alice Cooper"
	updated, err := env.service.UpdateAccount(context.Background(), aliceID, &newName, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.FullName)
}
