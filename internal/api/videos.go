package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"vidstream/internal/catalog"
)

const videoPageMaxLimit = 50

type VideoHandler struct {
	catalog        *catalog.Service
	uploadMaxBytes int64
}

func NewVideoHandler(svc *catalog.Service, uploadMaxBytes int64) *VideoHandler {
	return &VideoHandler{
		catalog:        svc,
		uploadMaxBytes: uploadMaxBytes,
	}
}

// POST /api/v1/videos (multipart: title, description, duration,
// videoFile, thumbnail)
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
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

	var duration int64
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			badRequest(w, "duration must be a non-negative integer")
			return
		}
		duration = parsed
	}

	videoFile, closeVideo, present, err := openFormFile(r, "videoFile")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if !present {
		badRequest(w, "videoFile file is required")
		return
	}
	defer closeVideo()

	thumbnail, closeThumbnail, present, err := openFormFile(r, "thumbnail")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if !present {
		badRequest(w, "thumbnail file is required")
		return
	}
	defer closeThumbnail()

	video, err := h.catalog.Publish(r.Context(), catalog.PublishInput{
		OwnerID:     user.ID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Duration:    duration,
		Video:       videoFile,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, video)
}

// GET /api/v1/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r, 10, videoPageMaxLimit)
	if err != nil {
		renderError(w, err)
		return
	}

	videos, err := h.catalog.ListPublished(r.Context(), page, limit)
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, videos)
}

// GET /api/v1/videos/{videoID}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID := ""
	if user := RequestUser(r); user != nil {
		viewerID = user.ID
	}

	video, err := h.catalog.Watch(r.Context(), chi.URLParam(r, "videoID"), viewerID)
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, video)
}

// PATCH /api/v1/videos/{videoID}/toggle-publish
func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		unauthorized(w, "You are not authorized to access this resource")
		return
	}

	video, err := h.catalog.TogglePublish(r.Context(), chi.URLParam(r, "videoID"), user.ID)
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, video)
}
