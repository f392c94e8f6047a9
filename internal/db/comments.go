package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vidstream/internal/models"
)

type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(videoID, ownerID, content string) (*models.Comment, error) {
	id, err := GenerateID("cmt")
	if err != nil {
		return nil, fmt.Errorf("generating comment ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO comments (id, video_id, owner_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, videoID, ownerID, content, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	return &models.Comment{
		ID:        id,
		VideoID:   videoID,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
	}, nil
}

func (r *CommentRepository) FindByID(id string) (*models.Comment, error) {
	var c models.Comment
	var updatedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, video_id, owner_id, content, created_at, updated_at FROM comments WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying comment: %w", err)
	}

	c.UpdatedAt = nullTimeToPtr(updatedAt)

	return &c, nil
}

// UpdateContent rewrites a comment's content. The WHERE clause scopes
// the update to the owner, so a foreign comment surfaces as ErrNotFound.
func (r *CommentRepository) UpdateContent(id, ownerID, content string) error {
	result, err := r.db.Exec(
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		content, time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}
	return checkRowsAffected(result)
}

// Delete removes the owner's comment. Deleting a missing or foreign
// comment affects no rows and is not an error.
func (r *CommentRepository) Delete(id, ownerID string) error {
	_, err := r.db.Exec(`DELETE FROM comments WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	return nil
}

// ListByVideo returns one page of a video's comments, newest first,
// with the total count for the pagination envelope.
func (r *CommentRepository) ListByVideo(videoID string, page, limit int) ([]*models.Comment, int64, error) {
	var total int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE video_id = ?`, videoID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting comments: %w", err)
	}

	offset := (page - 1) * limit
	rows, err := r.db.Query(
		`SELECT id, video_id, owner_id, content, created_at, updated_at
           FROM comments
          WHERE video_id = ?
          ORDER BY created_at DESC, id
          LIMIT ? OFFSET ?`,
		videoID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var c models.Comment
		var updatedAt sql.NullTime

		if err := rows.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &updatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning comment: %w", err)
		}

		c.UpdatedAt = nullTimeToPtr(updatedAt)
		comments = append(comments, &c)
	}

	return comments, total, rows.Err()
}
