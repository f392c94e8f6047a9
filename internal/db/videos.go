package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vidstream/internal/models"
)

const videoColumns = `id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at`

type VideoRepository struct {
	db *DB
}

func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

type CreateVideoParams struct {
	OwnerID      string
	VideoURL     string
	ThumbnailURL string
	Title        string
	Description  string
	Duration     int64
}

func (r *VideoRepository) Create(p CreateVideoParams) (*models.Video, error) {
	id, err := GenerateID("vid")
	if err != nil {
		return nil, fmt.Errorf("generating video ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.OwnerID, p.VideoURL, p.ThumbnailURL, p.Title, p.Description, p.Duration, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating video: %w", err)
	}

	return &models.Video{
		ID:           id,
		OwnerID:      p.OwnerID,
		VideoURL:     p.VideoURL,
		ThumbnailURL: p.ThumbnailURL,
		Title:        p.Title,
		Description:  p.Description,
		Duration:     p.Duration,
		IsPublished:  true,
		CreatedAt:    now,
	}, nil
}

func (r *VideoRepository) FindByID(id string) (*models.Video, error) {
	var v models.Video
	var updatedAt sql.NullTime

	err := r.db.QueryRow(`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id).Scan(
		&v.ID,
		&v.OwnerID,
		&v.VideoURL,
		&v.ThumbnailURL,
		&v.Title,
		&v.Description,
		&v.Duration,
		&v.Views,
		&v.IsPublished,
		&v.CreatedAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying video: %w", err)
	}

	v.UpdatedAt = nullTimeToPtr(updatedAt)

	return &v, nil
}

// ListPublished returns published videos newest first.
func (r *VideoRepository) ListPublished(page, limit int) ([]*models.Video, error) {
	offset := (page - 1) * limit
	rows, err := r.db.Query(
		`SELECT `+videoColumns+` FROM videos WHERE is_published = 1 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		var v models.Video
		var updatedAt sql.NullTime

		if err := rows.Scan(
			&v.ID, &v.OwnerID, &v.VideoURL, &v.ThumbnailURL, &v.Title, &v.Description,
			&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning video: %w", err)
		}

		v.UpdatedAt = nullTimeToPtr(updatedAt)
		videos = append(videos, &v)
	}

	return videos, rows.Err()
}

// IncrementViews bumps the view counter in a single UPDATE.
func (r *VideoRepository) IncrementViews(id string) error {
	result, err := r.db.Exec(`UPDATE videos SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("incrementing views: %w", err)
	}
	return checkRowsAffected(result)
}

// SetPublished toggles visibility; only the owner's rows are touched.
func (r *VideoRepository) SetPublished(id, ownerID string, published bool) error {
	result, err := r.db.Exec(
		`UPDATE videos SET is_published = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		published, time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("updating published flag: %w", err)
	}
	return checkRowsAffected(result)
}
