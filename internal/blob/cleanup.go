package blob

import (
	"context"
	"log/slog"
	"time"

	"vidstream/internal/db"
)

const (
	DefaultCleanupInterval = 1 * time.Hour
	DefaultCleanupBatch    = 100

	// orphanGracePeriod keeps fresh uploads alive while the request
	// that made them is still in flight.
	orphanGracePeriod = 24 * time.Hour
)

// CleanupService reaps stored files whose blob records are no longer
// referenced by any user or video.
type CleanupService struct {
	records   *db.BlobRepository
	blobs     *Service
	interval  time.Duration
	batchSize int64
}

func NewCleanupService(records *db.BlobRepository, blobs *Service) *CleanupService {
	return &CleanupService{
		records:   records,
		blobs:     blobs,
		interval:  DefaultCleanupInterval,
		batchSize: DefaultCleanupBatch,
	}
}

func (s *CleanupService) Start(ctx context.Context) {
	slog.Info("starting blob cleanup service", "component", "blob_cleanup", "interval", s.interval)

	s.runCleanup()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping blob cleanup service", "component", "blob_cleanup")
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

func (s *CleanupService) runCleanup() {
	cutoff := time.Now().UTC().Add(-orphanGracePeriod)
	records, err := s.records.ListOrphaned(cutoff, s.batchSize)
	if err != nil {
		slog.Error("error listing orphaned blobs", "component", "blob_cleanup", "error", err)
		return
	}

	deleted := 0
	for _, rec := range records {
		rowsAffected, err := s.records.Delete(rec.ID)
		if err != nil {
			slog.Error("error deleting orphaned blob row", "component", "blob_cleanup", "error", err, "blob_id", rec.ID)
			continue
		}
		if rowsAffected == 0 {
			continue
		}

		if err := s.blobs.Delete(rec.StoragePath); err != nil {
			slog.Warn("error deleting orphaned blob file", "component", "blob_cleanup", "error", err, "blob_id", rec.ID)
		}
		deleted++
	}

	if deleted > 0 {
		slog.Info("deleted orphaned blobs", "component", "blob_cleanup", "count", deleted)
	}
}
