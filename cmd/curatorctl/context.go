package main

import (
	"context"
	"fmt"

	"github.com/ad-tracker/newsletter-curator/internal/config"
	"github.com/ad-tracker/newsletter-curator/internal/db"
	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/db/repository"
	"github.com/ad-tracker/newsletter-curator/internal/draft"
	"github.com/ad-tracker/newsletter-curator/internal/placement"
	"github.com/ad-tracker/newsletter-curator/pkg/logger"
)

type favoritesSource interface {
	ListFavorites(ctx context.Context, limit int) ([]*models.CuratedVideo, error)
	UpsertVideo(ctx context.Context, video *models.CuratedVideo) error
}

// session is a loaded view of the current issues.
type session struct {
	store          *placement.Store
	favorites      favoritesSource
	favoritesLimit int
	close          func()
}

type sessionOpener func(ctx context.Context, cfg *config.Config) (*session, error)

type commandContext struct {
	open    sessionOpener
	cfg     *config.Config
	current *session
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) withSession(ctx context.Context, fn func(*session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if c.current == nil {
		s, err := c.open(ctx, cfg)
		if err != nil {
			return err
		}
		c.current = s
	}
	return fn(c.current)
}

func (c *commandContext) closeSession() {
	if c.current != nil && c.current.close != nil {
		c.current.close()
	}
	c.current = nil
}

func openDatabaseSession(ctx context.Context, cfg *config.Config) (*session, error) {
	pool, err := db.NewPool(ctx, db.ConfigFrom(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	issues := repository.NewIssueRepository(pool)
	videos := repository.NewVideoRepository(pool)
	items := repository.NewItemRepository(pool)
	persistence := repository.NewPlacementPersistence(items, issues)

	store := placement.NewStore(persistence, videos,
		placement.WithLoader(persistence),
		placement.WithAssignmentIndex(items),
		placement.WithLogger(logger.For("placement")),
		placement.WithAssembler(draft.New(cfg.Newsletter.PublicationName)),
	)

	open := func(ctx context.Context, t models.IssueType) (*models.NewsletterIssue, error) {
		return repository.OpenCurrentIssue(ctx, issues, t)
	}
	if err := store.LoadCurrent(ctx, open, models.IssueTypeUrgent, models.IssueTypeEvergreen); err != nil {
		pool.Close()
		return nil, err
	}

	return &session{
		store:          store,
		favorites:      videos,
		favoritesLimit: cfg.Newsletter.FavoritesLimit,
		close:          pool.Close,
	}, nil
}
