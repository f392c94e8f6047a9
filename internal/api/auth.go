package api

import (
	"net/http"
	"strings"
	"time"

	"vidstream/internal/models"
	"vidstream/internal/session"
)

type SessionHandler struct {
	sessions       *session.Service
	cookies        CookieConfig
	uploadMaxBytes int64
}

func NewSessionHandler(sessions *session.Service, cookies CookieConfig, uploadMaxBytes int64) *SessionHandler {
	return &SessionHandler{
		sessions:       sessions,
		cookies:        cookies,
		uploadMaxBytes: uploadMaxBytes,
	}
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    string       `json:"expiresAt"`
}

// POST /api/v1/users/register (multipart form)
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	cleanup, ok := parseUploadForm(w, r, h.uploadMaxBytes)
	if !ok {
		return
	}
	defer cleanup()

	avatar, closeAvatar, avatarPresent, err := openFormFile(r, "avatar")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if avatarPresent {
		defer closeAvatar()
	}

	coverImage, closeCover, coverPresent, err := openFormFile(r, "coverImage")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if coverPresent {
		defer closeCover()
	}

	in := session.RegisterInput{
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	if avatarPresent {
		in.Avatar = avatar
	}
	if coverPresent {
		in.CoverImage = coverImage
	}

	user, err := h.sessions.Register(r.Context(), in)
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/v1/users/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}

	user, pair, err := h.sessions.Login(r.Context(), identifier, req.Password)
	if err != nil {
		renderError(w, err)
		return
	}

	h.cookies.setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, AuthResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// POST /api/v1/users/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		unauthorized(w, "You are not authorized to access this resource")
		return
	}

	if err := h.sessions.Logout(r.Context(), user.ID); err != nil {
		renderError(w, err)
		return
	}

	h.cookies.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "user logged out"})
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    string `json:"expiresAt"`
}

// POST /api/v1/users/refresh-token
//
// The refresh token comes from the refreshToken cookie when present,
// otherwise from the JSON body.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" && r.Body != nil && r.ContentLength != 0 {
		var req RefreshRequest
		if err := decodeAndValidate(r.Body, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
		presented = req.RefreshToken
	}

	_, pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		renderError(w, err)
		return
	}

	h.cookies.setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=128"`
}

// POST /api/v1/users/change-password
func (h *SessionHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		unauthorized(w, "You are not authorized to access this resource")
		return
	}

	var req ChangePasswordRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed successfully"})
}

// GET /api/v1/users/current-user
func (h *SessionHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		unauthorized(w, "You are not authorized to access this resource")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
