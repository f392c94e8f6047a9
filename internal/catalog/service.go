// Package catalog owns the video library: publishing uploads, listing,
// playback lookups, and visibility toggles.
package catalog

import (
	"context"
	"errors"
	"strings"

	"vidstream/internal/apperror"
	"vidstream/internal/blob"
	"vidstream/internal/constants"
	"vidstream/internal/db"
	"vidstream/internal/mediaurl"
	"vidstream/internal/models"
	"vidstream/internal/session"
)

// VideoStore is the video repository the service depends on.
// *db.VideoRepository satisfies it.
type VideoStore interface {
	Create(p db.CreateVideoParams) (*models.Video, error)
	FindByID(id string) (*models.Video, error)
	ListPublished(page, limit int) ([]*models.Video, error)
	IncrementViews(id string) error
	SetPublished(id, ownerID string, published bool) error
}

type Service struct {
	videos  VideoStore
	media   session.MediaStore
	blobs   session.BlobStore
	baseURL string
}

func NewService(videos VideoStore, media session.MediaStore, blobs session.BlobStore, baseURL string) *Service {
	return &Service{
		videos:  videos,
		media:   media,
		blobs:   blobs,
		baseURL: baseURL,
	}
}

type PublishInput struct {
	OwnerID     string
	Title       string
	Description string
	Duration    int64
	Video       *session.FileUpload
	Thumbnail   *session.FileUpload
}

// Publish stores the video file and its thumbnail, then records the
// catalog entry. New videos are published immediately.
func (s *Service) Publish(ctx context.Context, in PublishInput) (*models.Video, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)

	switch {
	case title == "":
		return nil, apperror.NewValidation("title is required")
	case len(title) > constants.VideoTitleMaxLength:
		return nil, apperror.NewValidation("title is too long")
	case len(description) > constants.VideoDescMaxLength:
		return nil, apperror.NewValidation("description is too long")
	case in.Duration < 0:
		return nil, apperror.NewValidation("duration must not be negative")
	case in.Video == nil:
		return nil, apperror.NewValidation("video file is required")
	case in.Thumbnail == nil:
		return nil, apperror.NewValidation("thumbnail file is required")
	}

	videoURL, err := s.upload(ctx, blob.KindVideo, in.Video, in.OwnerID)
	if err != nil {
		return nil, err
	}
	thumbnailURL, err := s.upload(ctx, blob.KindThumbnail, in.Thumbnail, in.OwnerID)
	if err != nil {
		return nil, err
	}

	video, err := s.videos.Create(db.CreateVideoParams{
		OwnerID:      in.OwnerID,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Title:        title,
		Description:  description,
		Duration:     in.Duration,
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "creating video", err)
	}

	return video, nil
}

// ListPublished returns one page of published videos, newest first.
func (s *Service) ListPublished(_ context.Context, page, limit int) ([]*models.Video, error) {
	videos, err := s.videos.ListPublished(page, limit)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "listing videos", err)
	}
	if videos == nil {
		videos = []*models.Video{}
	}
	return videos, nil
}

// Watch fetches a video for playback and bumps its view counter.
// Unpublished videos are visible only to their owner.
func (s *Service) Watch(_ context.Context, videoID, viewerID string) (*models.Video, error) {
	video, err := s.videos.FindByID(videoID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NewNotFound("video not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "finding video", err)
	}

	if !video.IsPublished && video.OwnerID != viewerID {
		return nil, apperror.NewNotFound("video not found")
	}

	if err := s.videos.IncrementViews(video.ID); err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, apperror.Wrap(apperror.Internal, "incrementing views", err)
	}
	video.Views++

	return video, nil
}

// TogglePublish flips the video's visibility. Only the owner may do
// this; a foreign video surfaces as not found.
func (s *Service) TogglePublish(_ context.Context, videoID, ownerID string) (*models.Video, error) {
	video, err := s.videos.FindByID(videoID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NewNotFound("video not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "finding video", err)
	}
	if video.OwnerID != ownerID {
		return nil, apperror.NewNotFound("video not found")
	}

	if err := s.videos.SetPublished(video.ID, ownerID, !video.IsPublished); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NewNotFound("video not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "updating published flag", err)
	}
	video.IsPublished = !video.IsPublished

	return video, nil
}

func (s *Service) upload(ctx context.Context, kind blob.Kind, upload *session.FileUpload, ownerID string) (string, error) {
	stored, err := s.media.Save(ctx, kind, upload.Name, upload.Data)
	if err != nil {
		switch {
		case errors.Is(err, blob.ErrFileTooLarge),
			errors.Is(err, blob.ErrDisallowedType),
			errors.Is(err, blob.ErrExecutableFile):
			return "", apperror.Wrap(apperror.Validation, "rejected media file", err)
		default:
			return "", apperror.Wrap(apperror.Upload, "uploading media file", err)
		}
	}

	err = s.blobs.Create(db.BlobRecord{
		ID:           stored.ID,
		Kind:         string(stored.Kind),
		StoragePath:  stored.StoragePath,
		MimeType:     stored.MimeType,
		SizeBytes:    stored.SizeBytes,
		OriginalName: stored.OriginalName,
		OwnerID:      &ownerID,
		CreatedAt:    stored.CreatedAt,
	})
	if err != nil {
		return "", apperror.Wrap(apperror.Upload, "recording media file", err)
	}

	return mediaurl.Blob(s.baseURL, stored.ID), nil
}
