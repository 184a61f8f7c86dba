package repository

import (
	"context"
	"fmt"

	"github.com/ad-tracker/newsletter-curator/internal/db"
	"github.com/ad-tracker/newsletter-curator/internal/db/models"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ItemRepository defines operations for managing newsletter items.
type ItemRepository interface {
	// InsertItem creates a new item row with its issue, video and position.
	InsertItem(ctx context.Context, item *models.NewsletterItem) error

	// UpdateItemPlacement changes the owning issue and position of an item.
	UpdateItemPlacement(ctx context.Context, itemID, issueID uuid.UUID, position int) error

	// DeleteItem removes an item by id.
	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	// UpdatePositions rewrites the position of every item in updates.
	UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error

	// UpdateItemFields replaces the stored curation fields of an item.
	UpdateItemFields(ctx context.Context, itemID uuid.UUID, fields models.ItemFields) error

	// ListItemsByIssue returns the items of an issue ordered by position, with their videos.
	ListItemsByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.NewsletterItem, error)

	// ListAssignedVideoIDs returns the video ids referenced by items of the given issues.
	ListAssignedVideoIDs(ctx context.Context, issueIDs []uuid.UUID) ([]string, error)
}

type itemRepository struct {
	pool db.DBTX
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(pool db.DBTX) ItemRepository {
	return &itemRepository{pool: pool}
}

func (r *itemRepository) InsertItem(ctx context.Context, item *models.NewsletterItem) error {
	fields, err := json.Marshal(item.Fields)
	if err != nil {
		return fmt.Errorf("marshal item fields: %w", err)
	}

	query := `
		INSERT INTO newsletter_items (id, issue_id, video_id, position, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		item.ID,
		item.IssueID,
		item.VideoID,
		item.Position,
		fields,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return db.WrapError(err, "insert item")
	}

	return nil
}

func (r *itemRepository) UpdateItemPlacement(ctx context.Context, itemID, issueID uuid.UUID, position int) error {
	query := `
		UPDATE newsletter_items
		SET issue_id = $2, position = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, itemID, issueID, position)
	if err != nil {
		return db.WrapError(err, "update item placement")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "update item placement")
	}

	return nil
}

func (r *itemRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM newsletter_items WHERE id = $1`, itemID)
	if err != nil {
		return db.WrapError(err, "delete item")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "delete item")
	}

	return nil
}

func (r *itemRepository) UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ids := make([]string, len(updates))
	positions := make([]int32, len(updates))
	for i, u := range updates {
		ids[i] = u.ItemID.String()
		positions[i] = int32(u.Position)
	}

	query := `
		UPDATE newsletter_items AS i
		SET position = u.position, updated_at = NOW()
		FROM unnest($1::uuid[], $2::int[]) AS u(id, position)
		WHERE i.id = u.id
	`

	tag, err := r.pool.Exec(ctx, query, ids, positions)
	if err != nil {
		return db.WrapError(err, "update positions")
	}
	if int(tag.RowsAffected()) != len(updates) {
		return fmt.Errorf("update positions: %d of %d items updated: %w", tag.RowsAffected(), len(updates), db.ErrNotFound)
	}

	return nil
}

func (r *itemRepository) UpdateItemFields(ctx context.Context, itemID uuid.UUID, fields models.ItemFields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal item fields: %w", err)
	}

	query := `
		UPDATE newsletter_items
		SET fields = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, itemID, raw)
	if err != nil {
		return db.WrapError(err, "update item fields")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "update item fields")
	}

	return nil
}

func (r *itemRepository) ListItemsByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.NewsletterItem, error) {
	query := `
		SELECT i.id, i.issue_id, i.video_id, i.position, i.fields, i.created_at, i.updated_at,
		       v.title, v.channel_name, v.video_url, v.thumbnail_url, v.duration_seconds, v.published_at
		FROM newsletter_items i
		JOIN curated_videos v ON v.video_id = i.video_id
		WHERE i.issue_id = $1
		ORDER BY i.position ASC, i.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, db.WrapError(err, "list items by issue")
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *itemRepository) ListAssignedVideoIDs(ctx context.Context, issueIDs []uuid.UUID) ([]string, error) {
	if len(issueIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(issueIDs))
	for i, id := range issueIDs {
		ids[i] = id.String()
	}

	rows, err := r.pool.Query(ctx, `SELECT DISTINCT video_id FROM newsletter_items WHERE issue_id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, db.WrapError(err, "list assigned video ids")
	}
	defer rows.Close()

	var videoIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan video id: %w", err)
		}
		videoIDs = append(videoIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video ids: %w", err)
	}

	return videoIDs, nil
}

// Helper function to scan items joined with their videos
func scanItems(rows pgx.Rows) ([]*models.NewsletterItem, error) {
	var items []*models.NewsletterItem

	for rows.Next() {
		item := &models.NewsletterItem{}
		video := &models.CuratedVideo{}
		var rawFields []byte

		err := rows.Scan(
			&item.ID,
			&item.IssueID,
			&item.VideoID,
			&item.Position,
			&rawFields,
			&item.CreatedAt,
			&item.UpdatedAt,
			&video.Title,
			&video.ChannelName,
			&video.VideoURL,
			&video.ThumbnailURL,
			&video.DurationSeconds,
			&video.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}

		if len(rawFields) > 0 {
			if err := json.Unmarshal(rawFields, &item.Fields); err != nil {
				return nil, fmt.Errorf("decode fields of item %s: %w", item.ID, err)
			}
		}

		video.VideoID = item.VideoID
		item.Video = video
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}
