package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"vidstream/internal/constants"
	"vidstream/internal/db"
	"vidstream/internal/models"
)

type CommentHandler struct {
	comments  *db.CommentRepository
	videos    *db.VideoRepository
	sanitizer *bluemonday.Policy
}

func NewCommentHandler(comments *db.CommentRepository, videos *db.VideoRepository) *CommentHandler {
	return &CommentHandler{
		comments:  comments,
		videos:    videos,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// sanitizeContent strips markup and validates the resulting text.
func (h *CommentHandler) sanitizeContent(raw string) (string, string) {
	content := strings.TrimSpace(h.sanitizer.Sanitize(raw))
	if content == "" {
		return "", "comment content is required"
	}
	if len(content) > constants.CommentMaxLength {
		return "", "comment content is too long"
	}
	return content, ""
}

// POST /api/v1/videos/{videoID}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		unauthorized(w, "You are not authorized to access this resource")
		return
	}

	videoID := chi.URLParam(r, "videoID")
	if _, err := h.videos.FindByID(videoID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			notFound(w, "video not found")
			return
		}
		renderError(w, err)
		return
	}

	var req CommentRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	content, msg := h.sanitizeContent(req.Content)
	if msg != "" {
		badRequest(w, msg)
		return
	}

	comment, err := h.comments.Create(videoID, user.ID, content)
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// GET /api/v1/videos/{videoID}/comments
func (h *CommentHandler) ListByVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if _, err := h.videos.FindByID(videoID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			notFound(w, "video not found")
			return
		}
		renderError(w, err)
		return
	}

	page, limit, err := parsePagination(r, 10, constants.CommentPageMaxLimit)
	if err != nil {
		renderError(w, err)
		return
	}

	comments, total, err := h.comments.ListByVideo(videoID, page, limit)
	if err != nil {
		renderError(w, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}

	writeJSON(w, http.StatusOK, models.CommentPage{
		Comments: comments,
		Page:     page,
		Limit:    limit,
		Total:    total,
	})
}

// PATCH /api/v1/comments/{commentID}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		unauthorized(w, "You are not authorized to access this resource")
		return
	}

	var req CommentRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	content, msg := h.sanitizeContent(req.Content)
	if msg != "" {
		badRequest(w, msg)
		return
	}

	commentID := chi.URLParam(r, "commentID")
	if err := h.comments.UpdateContent(commentID, user.ID, content); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			notFound(w, "comment not found")
			return
		}
		renderError(w, err)
		return
	}

	comment, err := h.comments.FindByID(commentID)
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

// DELETE /api/v1/comments/{commentID}
//
// Deleting a comment that is already gone, or that belongs to someone
// else, reports success without touching anything.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		unauthorized(w, "You are not authorized to access this resource")
		return
	}

	commentID := chi.URLParam(r, "commentID")
	if err := h.comments.Delete(commentID, user.ID); err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}
