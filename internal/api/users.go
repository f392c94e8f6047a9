package api

import (
	"context"
	"net/http"

	"vidstream/internal/models"
	"vidstream/internal/session"
)

type UserHandler struct {
	sessions       *session.Service
	uploadMaxBytes int64
}

func NewUserHandler(sessions *session.Service, uploadMaxBytes int64) *UserHandler {
	return &UserHandler{
		sessions:       sessions,
		uploadMaxBytes: uploadMaxBytes,
	}
}

type UpdateAccountRequest struct {
	FullName *string `json:"fullName" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
}

// PATCH /api/v1/users/update-account
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		unauthorized(w, "You are not authorized to access this resource")
		return
	}

	var req UpdateAccountRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	updated, err := h.sessions.UpdateAccount(r.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// PATCH /api/v1/users/avatar (multipart, field "avatar")
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "avatar", h.sessions.UpdateAvatar)
}

// PATCH /api/v1/users/cover-image (multipart, field "coverImage")
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "coverImage", h.sessions.UpdateCoverImage)
}

func (h *UserHandler) updateProfileImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID string, upload *session.FileUpload) (*models.User, error),
) {
	user := RequestUser(r)
	if user == nil {
		unauthorized(w, "You are not authorized to access this resource")
		return
	}

	cleanup, ok := parseUploadForm(w, r, h.uploadMaxBytes)
	if !ok {
		return
	}
	defer cleanup()

	upload, closeFile, present, err := openFormFile(r, field)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if !present {
		badRequest(w, field+" file is required")
		return
	}
	defer closeFile()

	updated, err := update(r.Context(), user.ID, upload)
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
