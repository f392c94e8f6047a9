package models

import "time"

// User is the identity record. PasswordHash and RefreshTokenHash are
// never serialized; responses carry the stripped form.
type User struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	FullName         string     `json:"fullName"`
	PasswordHash     string     `json:"-"`
	RefreshTokenHash *string    `json:"-"`
	AvatarURL        string     `json:"avatarUrl"`
	CoverImageURL    *string    `json:"coverImageUrl,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// Stripped returns a copy with credential material cleared. Handlers
// always pass users through here before writing them to a response.
func (u *User) Stripped() *User {
	c := *u
	c.PasswordHash = ""
	c.RefreshTokenHash = nil
	return &c
}
