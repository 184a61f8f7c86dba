package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/config"
	"github.com/ad-tracker/newsletter-curator/internal/db"
	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/db/repository"
	"github.com/ad-tracker/newsletter-curator/internal/draft"
	"github.com/ad-tracker/newsletter-curator/internal/esp"
	"github.com/ad-tracker/newsletter-curator/internal/events"
	"github.com/ad-tracker/newsletter-curator/internal/handler"
	"github.com/ad-tracker/newsletter-curator/internal/middleware"
	"github.com/ad-tracker/newsletter-curator/internal/placement"
	"github.com/ad-tracker/newsletter-curator/internal/publish"
	"github.com/ad-tracker/newsletter-curator/internal/queue"
	"github.com/ad-tracker/newsletter-curator/internal/render"
	"github.com/ad-tracker/newsletter-curator/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.For("server")

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	pool, err := db.NewPool(ctx, db.ConfigFrom(cfg.Database))
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close(pool)

	log.Info("database connection established", zap.Int32("max_conns", pool.Config().MaxConns))

	itemRepo := repository.NewItemRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	videoRepo := repository.NewVideoRepository(pool)
	persistence := repository.NewPlacementPersistence(itemRepo, issueRepo)

	store := placement.NewStore(persistence, videoRepo,
		placement.WithLoader(persistence),
		placement.WithAssignmentIndex(itemRepo),
		placement.WithLogger(logger.For("placement")),
		placement.WithAssembler(draft.New(cfg.Newsletter.PublicationName)),
	)

	openIssue := func(ctx context.Context, t models.IssueType) (*models.NewsletterIssue, error) {
		return repository.OpenCurrentIssue(ctx, issueRepo, t)
	}
	if err := store.LoadCurrent(ctx, openIssue, models.IssueTypeUrgent, models.IssueTypeEvergreen); err != nil {
		return fmt.Errorf("load current issues: %w", err)
	}

	renderer, err := render.New(cfg.Newsletter.PublicationName)
	if err != nil {
		return fmt.Errorf("build renderer: %w", err)
	}

	var eventPublisher *events.Publisher
	if cfg.RabbitMQ.Enabled() {
		eventPublisher, err = events.NewPublisher(&cfg.RabbitMQ)
		if err != nil {
			log.Warn("failed to connect event publisher, status events will not be emitted", zap.Error(err))
		} else {
			defer func() {
				if err := eventPublisher.Close(); err != nil {
					log.Warn("failed to close event publisher", zap.Error(err))
				}
			}()
		}
	} else {
		log.Info("rabbitmq not configured, status events will not be emitted")
	}

	var queueClient *queue.Client
	if cfg.Redis.Enabled() {
		queueClient, err = queue.NewClient(cfg.Redis.URL, logger.For("queue"))
		if err != nil {
			log.Warn("failed to initialize queue client, status sync will not be scheduled", zap.Error(err))
		} else {
			defer queueClient.Close()
		}
	}

	var (
		publisher  *publish.Publisher
		reconciler *publish.Reconciler
		queueSrv   *queue.Server
	)
	if cfg.ESP.Enabled() {
		client := esp.NewClient(esp.Config{
			BaseURL:          cfg.ESP.BaseURL,
			APIKey:           cfg.ESP.APIKey,
			Timeout:          cfg.ESP.Timeout,
			FailureThreshold: cfg.ESP.FailureThreshold,
			OpenTimeout:      cfg.ESP.OpenTimeout,
		})

		opts := []publish.Option{publish.WithLogger(logger.For("publish"))}
		var evts publish.EventPublisher
		if eventPublisher != nil {
			evts = eventPublisher
			opts = append(opts, publish.WithEvents(eventPublisher))
		}
		if queueClient != nil {
			opts = append(opts, publish.WithSyncScheduler(queueClient))
		}

		publisher = publish.NewPublisher(store, issueRepo, client, renderer, opts...)
		reconciler = publish.NewReconciler(issueRepo, issueRepo, client, store, evts, logger.For("reconciler"))

		if cfg.Redis.Enabled() {
			syncHandler := queue.NewStatusSyncHandler(reconciler, logger.For("status-sync"))
			queueSrv, err = queue.NewServer(cfg.Redis.URL, cfg.Redis.Concurrency, syncHandler, logger.For("queue"))
			if err != nil {
				return fmt.Errorf("create queue server: %w", err)
			}
			if err := queueSrv.Start(); err != nil {
				return fmt.Errorf("start queue server: %w", err)
			}
			defer queueSrv.Stop()
		}
		log.Info("esp client initialized, publishing is available")
	} else {
		log.Info("esp not configured, publishing is disabled")
	}

	placementHandler := handler.NewPlacementHandler(store, videoRepo, cfg.Newsletter.FavoritesLimit, logger.For("placement-api")).
		WithIssueOpener(func(ctx context.Context, t models.IssueType) error {
			return store.LoadCurrent(ctx, openIssue, t)
		})

	routes := handler.Routes{
		Health:    newHealthHandler(cfg, pool.Ping, eventPublisher),
		Placement: placementHandler,
	}
	if publisher != nil {
		routes.Publish = handler.NewPublishHandler(store, publisher, reconciler, renderer, logger.For("publish-api"))
	}

	if len(cfg.Auth.APIKeys) == 0 {
		log.Warn("no API keys configured, api endpoints will reject all requests")
	}
	auth := middleware.NewAPIKeyAuth(cfg.Auth.APIKeys, logger.For("auth"))

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(routes, auth.Handler(),
		middleware.RequestLogger(logger.For("http")),
		middleware.Metrics(),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("failed to close server", zap.Error(closeErr))
			}
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		log.Info("server stopped gracefully")
		return nil
	}
}

func newHealthHandler(cfg *config.Config, dbPing handler.PingFunc, evts *events.Publisher) *handler.HealthHandler {
	var redis handler.Pinger
	if cfg.Redis.Enabled() {
		redis = handler.PingFunc(func(ctx context.Context) error {
			return queue.PingRedis(ctx, cfg.Redis.URL)
		})
	}

	var broker handler.HealthChecker
	if evts != nil {
		broker = evts
	}

	return handler.NewHealthHandler(dbPing, redis, broker)
}
