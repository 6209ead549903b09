package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/civic-issue-reporter/internal/blob"
	"github.com/iliyamo/civic-issue-reporter/internal/config"   // Internal config loader
	"github.com/iliyamo/civic-issue-reporter/internal/database" // connection + schema
	"github.com/iliyamo/civic-issue-reporter/internal/handler"
	"github.com/iliyamo/civic-issue-reporter/internal/logger"
	"github.com/iliyamo/civic-issue-reporter/internal/metrics"
	"github.com/iliyamo/civic-issue-reporter/internal/queue"
	"github.com/iliyamo/civic-issue-reporter/internal/repository"
	"github.com/iliyamo/civic-issue-reporter/internal/router" // Internal router setup
	"github.com/iliyamo/civic-issue-reporter/internal/service"
	"github.com/iliyamo/civic-issue-reporter/internal/stream"
	"github.com/iliyamo/civic-issue-reporter/internal/utils"
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.FromConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	photos, closePhotos, err := openPhotos(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.BlobBackend).Msg("open photo store")
	}
	defer closePhotos()

	m := metrics.New()
	hub := stream.NewHub()
	go hub.Run(ctx)

	sinks := queue.Fanout{hub, m}
	if cfg.EventsEnabled {
		pub := queue.NewAMQPPublisher(cfg.RabbitURL, cfg.EventsQueue)
		defer pub.Close()
		sinks = append(sinks, pub)
		go func() {
			err := queue.Consume(ctx, cfg.RabbitURL, cfg.EventsQueue, queue.LogHandler(log.With().Str("component", "event-consumer").Logger()))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event consumer stopped")
			}
		}()
		log.Info().Str("queue", cfg.EventsQueue).Msg("issue events enabled")
	}

	users := repository.NewUserRepo(db)
	authSvc := service.NewAuthService(users, utils.NewTokenService(cfg.JWTSecret), cfg.BcryptCost)
	issueSvc := service.NewIssueService(repository.NewIssueRepo(db), photos, sinks)

	e := router.New(router.Deps{
		Auth:          handler.NewAuthHandler(authSvc),
		Issues:        handler.NewIssueHandler(issueSvc, cfg.MaxPhotoBytes),
		Uploads:       handler.NewUploadHandler(photos),
		Stream:        handler.NewStreamHandler(issueSvc, hub),
		DB:            db,
		Resolver:      authSvc,
		Metrics:       m,
		CORSOrigins:   cfg.CORSOrigins,
		MaxPhotoBytes: cfg.MaxPhotoBytes,
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openPhotos builds the configured blob backend.  The returned func
// releases it.
func openPhotos(ctx context.Context, cfg config.Config) (blob.Store, func(), error) {
	switch cfg.BlobBackend {
	case "redis":
		rdb, err := config.NewRedisClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		return blob.NewRedisStore(rdb, "photo", cfg.BlobTTL), func() { _ = rdb.Close() }, nil
	default:
		s, err := blob.NewDiskStore(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}
