package api

import (
	"net/http"
	"strconv"

	"vidstream/internal/apperror"
)

// parsePagination reads page/limit query parameters, applying defaults
// and clamping limit to maxLimit.
func parsePagination(r *http.Request, defaultLimit, maxLimit int) (page, limit int, err error) {
	page = 1
	limit = defaultLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, apperror.NewValidation("page must be a positive integer")
		}
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, apperror.NewValidation("limit must be a positive integer")
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return page, limit, nil
}
