package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"vidstream/internal/session"
)

// parseUploadForm parses a multipart request body under the configured
// size cap. It writes the failure response itself; callers bail out
// when ok is false and defer cleanup otherwise.
func parseUploadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (cleanup func(), ok bool) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		if isBodyTooLargeError(err) {
			payloadTooLarge(w, "File exceeds maximum upload size")
		} else {
			badRequest(w, "Invalid multipart upload")
		}
		return func() {}, false
	}

	return func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}, true
}

// openFormFile opens one named file field. A missing field is not an
// error; present reports whether the caller got an upload to close.
func openFormFile(r *http.Request, field string) (upload *session.FileUpload, closeFile func(), present bool, err error) {
	file, fileHeader, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("reading %s field: %w", field, err)
	}

	if fileHeader == nil || strings.TrimSpace(fileHeader.Filename) == "" {
		file.Close()
		return nil, nil, false, fmt.Errorf("%s file name is required", field)
	}

	return &session.FileUpload{
		Name: fileHeader.Filename,
		Data: file,
	}, func() { file.Close() }, true, nil
}

func isBodyTooLargeError(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}
