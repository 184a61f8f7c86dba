package repository

import (
	"context"
	"fmt"

	"github.com/ad-tracker/newsletter-curator/internal/db"
	"github.com/ad-tracker/newsletter-curator/internal/db/models"

	"github.com/jackc/pgx/v5"
)

// VideoRepository defines read access to the curated video pool.
type VideoRepository interface {
	// UpsertVideo creates a new curated video or updates an existing one.
	UpsertVideo(ctx context.Context, video *models.CuratedVideo) error

	// GetVideoByID retrieves a single curated video by ID.
	GetVideoByID(ctx context.Context, videoID string) (*models.CuratedVideo, error)

	// ListFavorites retrieves favorited videos, newest first.
	ListFavorites(ctx context.Context, limit int) ([]*models.CuratedVideo, error)
}

type videoRepository struct {
	pool db.DBTX
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool db.DBTX) VideoRepository {
	return &videoRepository{pool: pool}
}

const videoColumns = `video_id, title, channel_name, video_url, thumbnail_url, duration_seconds, published_at`

func (r *videoRepository) UpsertVideo(ctx context.Context, video *models.CuratedVideo) error {
	query := `
		INSERT INTO curated_videos (` + videoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (video_id) DO UPDATE
		SET title = EXCLUDED.title,
		    channel_name = EXCLUDED.channel_name,
		    video_url = EXCLUDED.video_url,
		    thumbnail_url = EXCLUDED.thumbnail_url,
		    duration_seconds = EXCLUDED.duration_seconds,
		    published_at = EXCLUDED.published_at
	`

	_, err := r.pool.Exec(ctx, query,
		video.VideoID,
		video.Title,
		video.ChannelName,
		video.VideoURL,
		video.ThumbnailURL,
		video.DurationSeconds,
		video.PublishedAt,
	)
	if err != nil {
		return db.WrapError(err, "upsert video")
	}

	return nil
}

func (r *videoRepository) GetVideoByID(ctx context.Context, videoID string) (*models.CuratedVideo, error) {
	query := `SELECT ` + videoColumns + ` FROM curated_videos WHERE video_id = $1`

	video := &models.CuratedVideo{}
	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&video.VideoID,
		&video.Title,
		&video.ChannelName,
		&video.VideoURL,
		&video.ThumbnailURL,
		&video.DurationSeconds,
		&video.PublishedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}

	return video, nil
}

func (r *videoRepository) ListFavorites(ctx context.Context, limit int) ([]*models.CuratedVideo, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM curated_videos
		WHERE is_favorite
		ORDER BY published_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "list favorites")
	}
	defer rows.Close()

	return scanVideos(rows)
}

// Helper function to scan multiple videos from query results
func scanVideos(rows pgx.Rows) ([]*models.CuratedVideo, error) {
	var videos []*models.CuratedVideo

	for rows.Next() {
		video := &models.CuratedVideo{}
		err := rows.Scan(
			&video.VideoID,
			&video.Title,
			&video.ChannelName,
			&video.VideoURL,
			&video.ThumbnailURL,
			&video.DurationSeconds,
			&video.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}
