package models

import "time"

type Comment struct {
	ID        string     `json:"id"`
	VideoID   string     `json:"videoId"`
	OwnerID   string     `json:"ownerId"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// CommentPage is one page of a video's comments.
type CommentPage struct {
	Comments []*Comment `json:"comments"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
	Total    int64      `json:"total"`
}
