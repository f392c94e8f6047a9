package api

import (
	"net/http"

	"vidstream/internal/db"
)

// HealthHandler reports whether the sqlite store backing users,
// videos and blobs is reachable.
type HealthHandler struct {
	database *db.DB
}

func NewHealthHandler(database *db.DB) *HealthHandler {
	return &HealthHandler{database: database}
}

// Check pings the database and degrades the overall status when the
// ping fails. Blob storage is plain files and has no liveness check.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	status := http.StatusOK

	if err := h.database.Ping(); err != nil {
		dbStatus = "error"
		status = http.StatusServiceUnavailable
	}

	result := "ok"
	if status != http.StatusOK {
		result = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status": result,
		"checks": map[string]string{
			"database": dbStatus,
		},
	})
}
