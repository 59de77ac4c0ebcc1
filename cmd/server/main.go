package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/eventos-api/internal/config"
	"github.com/iliyamo/eventos-api/internal/database"
	"github.com/iliyamo/eventos-api/internal/handler"
	"github.com/iliyamo/eventos-api/internal/metrics"
	"github.com/iliyamo/eventos-api/internal/middleware"
	"github.com/iliyamo/eventos-api/internal/queue"
	"github.com/iliyamo/eventos-api/internal/repository"
	"github.com/iliyamo/eventos-api/internal/router"
	"github.com/iliyamo/eventos-api/internal/service"
	"github.com/iliyamo/eventos-api/internal/utils"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.Logging)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
	}
	go metrics.CollectDBStats(ctx, db, 15*time.Second)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting falls back to in-process buckets")
	} else {
		defer rdb.Close()
	}

	var publisher queue.Publisher = queue.NoopPublisher{}
	if cfg.Queue.Enabled {
		p := queue.NewAMQPPublisher(cfg.Queue.URL, cfg.Queue.Name, log)
		defer p.Close()
		publisher = p
	}
	if cfg.Queue.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.Name, cfg.Queue.LogPath, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("activity consumer stopped")
			}
		}()
	}

	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	comments := repository.NewCommentRepo(db)

	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL(), cfg.RefreshTTL())
	authSvc := service.NewAuthService(users, utils.NewPasswordHasher(cfg.BcryptCost), tokens, publisher)
	eventSvc := service.NewEventService(events, users, publisher)
	commentSvc := service.NewCommentService(comments, events, users, publisher)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, rdb, log)

	e := router.New(log, cfg.IsDev(), tokens, limiter, router.Handlers{
		Auth:     handler.NewAuthHandler(authSvc, cfg.RequestTimeout),
		Events:   handler.NewEventHandler(eventSvc, cfg.RequestTimeout),
		Comments: handler.NewCommentHandler(commentSvc, cfg.RequestTimeout),
		Health:   handler.NewHealthHandler(db, rdb),
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
