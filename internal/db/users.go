package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vidstream/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

const userColumns = `id, username, email, full_name, password_hash, refresh_token_hash, avatar_url, cover_image_url, created_at, updated_at`

// UserRepository is the credential store. Refresh-token writes are
// single UPDATE statements so concurrent logins resolve to last writer
// wins with no read-modify-write window.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

type CreateUserParams struct {
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL *string
}

func (r *UserRepository) Create(p CreateUserParams) (*models.User, error) {
	id, err := GenerateID("usr")
	if err != nil {
		return nil, fmt.Errorf("generating user ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, cover_image_url, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Username, p.Email, p.FullName, p.PasswordHash, p.AvatarURL, p.CoverImageURL, now,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return &models.User{
		ID:            id,
		Username:      p.Username,
		Email:         p.Email,
		FullName:      p.FullName,
		PasswordHash:  p.PasswordHash,
		AvatarURL:     p.AvatarURL,
		CoverImageURL: p.CoverImageURL,
		CreatedAt:     now,
	}, nil
}

func (r *UserRepository) FindByID(id string) (*models.User, error) {
	return r.findOne(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindByUsernameOrEmail matches the identifier against the exact
// username or the exact email. Registration already lowercased both,
// so no further normalization happens here.
func (r *UserRepository) FindByUsernameOrEmail(identifier string) (*models.User, error) {
	return r.findOne(`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ?`, identifier, identifier)
}

func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	return r.findOne(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	return r.findOne(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// SetRefreshTokenHash overwrites the stored refresh token hash,
// invalidating whatever token was outstanding before.
func (r *UserRepository) SetRefreshTokenHash(id, tokenHash string) error {
	result, err := r.db.Exec(
		`UPDATE users SET refresh_token_hash = ?, updated_at = ? WHERE id = ?`,
		tokenHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting refresh token: %w", err)
	}
	return checkRowsAffected(result)
}

// ClearRefreshTokenHash unsets the stored refresh token hash. Clearing
// an already-clear field is a no-op, which makes logout idempotent.
func (r *UserRepository) ClearRefreshTokenHash(id string) error {
	result, err := r.db.Exec(
		`UPDATE users SET refresh_token_hash = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("clearing refresh token: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) UpdatePasswordHash(id, passwordHash string) error {
	result, err := r.db.Exec(
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating password hash: %w", err)
	}
	return checkRowsAffected(result)
}

// UpdateAccountDetails patches full name and/or email. Nil fields are
// left untouched.
func (r *UserRepository) UpdateAccountDetails(id string, fullName, email *string) error {
	result, err := r.db.Exec(
		`UPDATE users
            SET full_name = COALESCE(?, full_name),
                email = COALESCE(?, email),
                updated_at = ?
          WHERE id = ?`,
		fullName, email, time.Now().UTC(), id,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("updating account details: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) UpdateAvatarURL(id, url string) error {
	result, err := r.db.Exec(
		`UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`,
		url, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating avatar url: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) UpdateCoverImageURL(id, url string) error {
	result, err := r.db.Exec(
		`UPDATE users SET cover_image_url = ?, updated_at = ? WHERE id = ?`,
		url, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating cover image url: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) findOne(query string, args ...any) (*models.User, error) {
	var u models.User
	var refreshTokenHash, coverImageURL sql.NullString
	var updatedAt sql.NullTime

	err := r.db.QueryRow(query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&refreshTokenHash,
		&u.AvatarURL,
		&coverImageURL,
		&u.CreatedAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u.RefreshTokenHash = nullStringToPtr(refreshTokenHash)
	u.CoverImageURL = nullStringToPtr(coverImageURL)
	u.UpdatedAt = nullTimeToPtr(updatedAt)

	return &u, nil
}
