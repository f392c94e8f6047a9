package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"vidstream/internal/blob"
	"vidstream/internal/db"
)

type MediaHandler struct {
	blobs *db.BlobRepository
	store *blob.Service
}

func NewMediaHandler(blobs *db.BlobRepository, store *blob.Service) *MediaHandler {
	return &MediaHandler{blobs: blobs, store: store}
}

// GET /media/{blobID}
//
// Blob IDs are random and content never changes after upload, so the
// response is cached as immutable.
func (h *MediaHandler) GetBlob(w http.ResponseWriter, r *http.Request) {
	blobID := strings.TrimSpace(chi.URLParam(r, "blobID"))
	if blobID == "" {
		notFound(w, "Media not found")
		return
	}

	rec, err := h.blobs.FindByID(blobID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Media not found")
		return
	}
	if err != nil {
		internalError(w)
		return
	}

	file, err := h.store.Open(rec.StoragePath)
	if errors.Is(err, os.ErrNotExist) {
		notFound(w, "Media not found")
		return
	}
	if err != nil {
		internalError(w)
		return
	}
	defer file.Close()

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", fmt.Sprintf("\"%s\"", rec.ID))
	w.Header().Set("Content-Type", rec.MimeType)

	fileName := sanitizeDispositionFilename(rec.OriginalName)
	if shouldForceDownload(r) || !shouldRenderInline(rec.MimeType) {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	} else {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", fileName))
	}

	http.ServeContent(w, r, rec.OriginalName, rec.CreatedAt, file)
}

func sanitizeDispositionFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "")
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\n", "")
	if name == "" {
		return "download"
	}
	return name
}

func shouldRenderInline(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "video/")
}

func shouldForceDownload(r *http.Request) bool {
	download := strings.TrimSpace(r.URL.Query().Get("download"))
	if download == "" {
		return false
	}
	force, err := strconv.ParseBool(download)
	if err != nil {
		return false
	}
	return force
}
