package models

import "time"

type Video struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"ownerId"`
	VideoURL     string     `json:"videoUrl"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Duration     int64      `json:"duration"`
	Views        int64      `json:"views"`
	IsPublished  bool       `json:"isPublished"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}
