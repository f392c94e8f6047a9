// Package session orchestrates the authentication lifecycle: it owns
// registration, credential checks, token issuance and rotation, and
// the single-active-session invariant on the refresh token.
package session

import (
	"context"
	"errors"
	"io"
	"strings"

	"vidstream/internal/apperror"
	"vidstream/internal/auth"
	"vidstream/internal/blob"
	"vidstream/internal/db"
	"vidstream/internal/mediaurl"
	"vidstream/internal/models"
)

// CredentialStore is the per-record-atomic user store the service
// depends on. *db.UserRepository satisfies it.
type CredentialStore interface {
	Create(p db.CreateUserParams) (*models.User, error)
	FindByID(id string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByUsernameOrEmail(identifier string) (*models.User, error)
	SetRefreshTokenHash(id, tokenHash string) error
	ClearRefreshTokenHash(id string) error
	UpdatePasswordHash(id, passwordHash string) error
	UpdateAccountDetails(id string, fullName, email *string) error
	UpdateAvatarURL(id, url string) error
	UpdateCoverImageURL(id, url string) error
}

// MediaStore uploads profile media and returns an opaque descriptor.
// *blob.Service satisfies it.
type MediaStore interface {
	Save(ctx context.Context, kind blob.Kind, originalName string, src io.Reader) (*blob.StoredBlob, error)
}

// BlobStore records uploaded blobs so media URLs can be resolved later.
// *db.BlobRepository satisfies it.
type BlobStore interface {
	Create(rec db.BlobRecord) error
}

// FileUpload is a validated upload constructed once at the HTTP
// boundary; the service never touches the multipart form itself.
type FileUpload struct {
	Name string
	Data io.Reader
}

type Service struct {
	users   CredentialStore
	tokens  *auth.TokenService
	media   MediaStore
	blobs   BlobStore
	baseURL string
}

func NewService(users CredentialStore, tokens *auth.TokenService, media MediaStore, blobs BlobStore, baseURL string) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		media:   media,
		blobs:   blobs,
		baseURL: baseURL,
	}
}

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *FileUpload
	CoverImage *FileUpload
}

// Register creates a user after checking username/email uniqueness and
// uploading the mandatory avatar (and optional cover image). The
// returned user has credential fields stripped.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))
	password := strings.TrimSpace(in.Password)

	if fullName == "" || email == "" || username == "" || password == "" {
		return nil, apperror.NewValidation("all fields are required")
	}
	if in.Avatar == nil {
		return nil, apperror.NewValidation("avatar file is required")
	}

	// Each field is checked against its own column, so a username that
	// happens to equal another user's email is still available.
	for _, lookup := range []struct {
		find  func(string) (*models.User, error)
		value string
	}{
		{s.users.FindByUsername, username},
		{s.users.FindByEmail, email},
	} {
		_, err := lookup.find(lookup.value)
		if err == nil {
			return nil, apperror.NewConflict("user with email or username already exists")
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, apperror.Wrap(apperror.Internal, "checking existing user", err)
		}
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "hashing password", err)
	}

	avatarURL, err := s.upload(ctx, blob.KindAvatar, in.Avatar, nil)
	if err != nil {
		return nil, err
	}

	var coverImageURL *string
	if in.CoverImage != nil {
		url, err := s.upload(ctx, blob.KindCoverImage, in.CoverImage, nil)
		if err != nil {
			return nil, err
		}
		coverImageURL = &url
	}

	user, err := s.users.Create(db.CreateUserParams{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
	})
	if errors.Is(err, db.ErrDuplicate) {
		// Lost the race with a concurrent registration.
		return nil, apperror.NewConflict("user with email or username already exists")
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "creating user", err)
	}

	return user.Stripped(), nil
}

// Login verifies credentials and issues a token pair. The new refresh
// token hash overwrites whatever was stored, which revokes any earlier
// session for the account.
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.User, *auth.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil, apperror.NewValidation("username or email is required")
	}

	user, err := s.users.FindByUsernameOrEmail(identifier)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, apperror.NewNotFound("user does not exist")
	}
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.Internal, "finding user", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		// Stored refresh token is untouched on a failed login.
		return nil, nil, apperror.NewUnauthorized("invalid user credentials")
	}

	pair, refreshHash, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.Signing, "issuing token pair", err)
	}

	if err := s.users.SetRefreshTokenHash(user.ID, refreshHash); err != nil {
		return nil, nil, apperror.Wrap(apperror.Internal, "persisting refresh token", err)
	}

	return user.Stripped(), pair, nil
}

// Logout clears the stored refresh token. Calling it again is a no-op;
// access tokens already in the wild stay valid until their TTL elapses.
func (s *Service) Logout(ctx context.Context, userID string) error {
	err := s.users.ClearRefreshTokenHash(userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperror.Wrap(apperror.Internal, "clearing refresh token", err)
	}
	return nil
}

// Refresh exchanges a presented refresh token for a new pair. The
// presented token must hash to exactly the stored value; a mismatch
// means it was revoked by a later login, refresh, or logout.
func (s *Service) Refresh(ctx context.Context, presentedToken string) (*models.User, *auth.TokenPair, error) {
	presentedToken = strings.TrimSpace(presentedToken)
	if presentedToken == "" {
		return nil, nil, apperror.NewValidation("refresh token is required")
	}

	claims, err := s.tokens.VerifyRefreshToken(presentedToken)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid refresh token")
	}

	user, err := s.users.FindByID(claims.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, apperror.NewNotFound("user does not exist")
	}
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.Internal, "finding user", err)
	}

	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != auth.HashRefreshToken(presentedToken) {
		return nil, nil, apperror.NewUnauthorized("refresh token is expired or has been used")
	}

	pair, refreshHash, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.Signing, "issuing token pair", err)
	}

	if err := s.users.SetRefreshTokenHash(user.ID, refreshHash); err != nil {
		return nil, nil, apperror.Wrap(apperror.Internal, "persisting refresh token", err)
	}

	return user.Stripped(), pair, nil
}

// ChangePassword swaps the stored hash after verifying the old
// password. Outstanding tokens stay valid; only logout or a new login
// touches the refresh token.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return apperror.NewValidation("new password is required")
	}

	user, err := s.users.FindByID(userID)
	if errors.Is(err, db.ErrNotFound) {
		return apperror.NewUnauthorized("invalid user credentials")
	}
	if err != nil {
		return apperror.Wrap(apperror.Internal, "finding user", err)
	}

	if !auth.CheckPassword(oldPassword, user.PasswordHash) {
		return apperror.NewUnauthorized("invalid old password")
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "hashing password", err)
	}

	if err := s.users.UpdatePasswordHash(userID, passwordHash); err != nil {
		return apperror.Wrap(apperror.Internal, "updating password", err)
	}

	return nil
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperror.NewNotFound("user does not exist")
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "finding user", err)
	}
	return user.Stripped(), nil
}

// UpdateAccount patches full name and/or email; nil means unchanged.
func (s *Service) UpdateAccount(ctx context.Context, userID string, fullName, email *string) (*models.User, error) {
	if fullName == nil && email == nil {
		return nil, apperror.NewValidation("at least one field is required")
	}
	if fullName != nil {
		trimmed := strings.TrimSpace(*fullName)
		if trimmed == "" {
			return nil, apperror.NewValidation("full name must not be blank")
		}
		fullName = &trimmed
	}
	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		if normalized == "" {
			return nil, apperror.NewValidation("email must not be blank")
		}
		email = &normalized
	}

	err := s.users.UpdateAccountDetails(userID, fullName, email)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, apperror.NewConflict("email already in use")
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperror.NewNotFound("user does not exist")
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "updating account details", err)
	}

	return s.CurrentUser(ctx, userID)
}

func (s *Service) UpdateAvatar(ctx context.Context, userID string, upload *FileUpload) (*models.User, error) {
	if upload == nil {
		return nil, apperror.NewValidation("avatar file is required")
	}

	url, err := s.upload(ctx, blob.KindAvatar, upload, &userID)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateAvatarURL(userID, url); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NewNotFound("user does not exist")
		}
		return nil, apperror.Wrap(apperror.Internal, "updating avatar url", err)
	}

	return s.CurrentUser(ctx, userID)
}

func (s *Service) UpdateCoverImage(ctx context.Context, userID string, upload *FileUpload) (*models.User, error) {
	if upload == nil {
		return nil, apperror.NewValidation("cover image file is required")
	}

	url, err := s.upload(ctx, blob.KindCoverImage, upload, &userID)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateCoverImageURL(userID, url); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NewNotFound("user does not exist")
		}
		return nil, apperror.Wrap(apperror.Internal, "updating cover image url", err)
	}

	return s.CurrentUser(ctx, userID)
}

func (s *Service) upload(ctx context.Context, kind blob.Kind, upload *FileUpload, ownerID *string) (string, error) {
	stored, err := s.media.Save(ctx, kind, upload.Name, upload.Data)
	if err != nil {
		switch {
		case errors.Is(err, blob.ErrFileTooLarge),
			errors.Is(err, blob.ErrDisallowedType),
			errors.Is(err, blob.ErrExecutableFile):
			return "", apperror.Wrap(apperror.Validation, "rejected media file", err)
		default:
			return "", apperror.Wrap(apperror.Upload, "uploading media file", err)
		}
	}

	err = s.blobs.Create(db.BlobRecord{
		ID:           stored.ID,
		Kind:         string(stored.Kind),
		StoragePath:  stored.StoragePath,
		MimeType:     stored.MimeType,
		SizeBytes:    stored.SizeBytes,
		OriginalName: stored.OriginalName,
		OwnerID:      ownerID,
		CreatedAt:    stored.CreatedAt,
	})
	if err != nil {
		return "", apperror.Wrap(apperror.Upload, "recording media file", err)
	}

	return mediaurl.Blob(s.baseURL, stored.ID), nil
}
