package models

import "time"

// CuratedVideo is a favorited YouTube podcast episode eligible for placement in an issue.
type CuratedVideo struct {
	VideoID         string    `db:"video_id" json:"video_id"`
	Title           string    `db:"title" json:"title"`
	ChannelName     string    `db:"channel_name" json:"channel_name"`
	VideoURL        string    `db:"video_url" json:"video_url"`
	ThumbnailURL    string    `db:"thumbnail_url" json:"thumbnail_url"`
	DurationSeconds int       `db:"duration_seconds" json:"duration_seconds"`
	PublishedAt     time.Time `db:"published_at" json:"published_at"`
}

// NewCuratedVideo creates a new CuratedVideo with the given information.
func NewCuratedVideo(videoID, title, channelName, videoURL string, publishedAt time.Time) *CuratedVideo {
	return &CuratedVideo{
		VideoID:     videoID,
		Title:       title,
		ChannelName: channelName,
		VideoURL:    videoURL,
		PublishedAt: publishedAt,
	}
}
