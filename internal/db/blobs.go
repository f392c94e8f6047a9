package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vidstream/internal/mediaurl"
)

// BlobRecord maps a public blob ID to its storage location. Uploads
// made during registration have no owner yet, so OwnerID is optional.
type BlobRecord struct {
	ID           string
	Kind         string
	StoragePath  string
	MimeType     string
	SizeBytes    int64
	OriginalName string
	OwnerID      *string
	CreatedAt    time.Time
}

type BlobRepository struct {
	db *DB
}

func NewBlobRepository(db *DB) *BlobRepository {
	return &BlobRepository{db: db}
}

func (r *BlobRepository) Create(rec BlobRecord) error {
	_, err := r.db.Exec(
		`INSERT INTO blobs (id, kind, storage_path, mime_type, size_bytes, original_name, owner_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.StoragePath, rec.MimeType, rec.SizeBytes, rec.OriginalName, rec.OwnerID, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating blob record: %w", err)
	}
	return nil
}

func (r *BlobRepository) FindByID(id string) (*BlobRecord, error) {
	var rec BlobRecord
	var ownerID sql.NullString

	err := r.db.QueryRow(
		`SELECT id, kind, storage_path, mime_type, size_bytes, original_name, owner_id, created_at FROM blobs WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.Kind, &rec.StoragePath, &rec.MimeType, &rec.SizeBytes, &rec.OriginalName, &ownerID, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying blob record: %w", err)
	}

	rec.OwnerID = nullStringToPtr(ownerID)

	return &rec, nil
}

// ListOrphaned returns blobs older than the cutoff whose IDs are not
// referenced by any profile image or video. Uploads that never made it
// onto a record (failed registrations, replaced avatars) end up here.
func (r *BlobRepository) ListOrphaned(olderThan time.Time, limit int64) ([]*BlobRecord, error) {
	// Stored URLs end in the media path plus the blob ID; the prefix
	// comes from mediaurl so the two can't drift apart.
	pattern := "%" + mediaurl.PathPrefix

	rows, err := r.db.Query(
		`SELECT b.id, b.kind, b.storage_path, b.mime_type, b.size_bytes, b.original_name, b.owner_id, b.created_at
           FROM blobs b
          WHERE b.created_at < ?
            AND NOT EXISTS (
                SELECT 1 FROM users u
                 WHERE u.avatar_url LIKE ? || b.id
                    OR u.cover_image_url LIKE ? || b.id
            )
            AND NOT EXISTS (
                SELECT 1 FROM videos v
                 WHERE v.video_url LIKE ? || b.id
                    OR v.thumbnail_url LIKE ? || b.id
            )
          LIMIT ?`,
		olderThan.UTC(), pattern, pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying orphaned blobs: %w", err)
	}
	defer rows.Close()

	var records []*BlobRecord
	for rows.Next() {
		var rec BlobRecord
		var ownerID sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.StoragePath, &rec.MimeType, &rec.SizeBytes, &rec.OriginalName, &ownerID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning orphaned blob: %w", err)
		}

		rec.OwnerID = nullStringToPtr(ownerID)
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Delete reports how many rows were removed so callers can tell a
// concurrent delete from their own.
func (r *BlobRepository) Delete(id string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM blobs WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting blob record: %w", err)
	}
	return result.RowsAffected()
}
