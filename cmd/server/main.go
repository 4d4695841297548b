package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-showtimes/internal/catalog"
	"github.com/iliyamo/cinema-showtimes/internal/config"
	"github.com/iliyamo/cinema-showtimes/internal/database"
	"github.com/iliyamo/cinema-showtimes/internal/handler"
	"github.com/iliyamo/cinema-showtimes/internal/jobs"
	"github.com/iliyamo/cinema-showtimes/internal/logger"
	"github.com/iliyamo/cinema-showtimes/internal/middleware"
	"github.com/iliyamo/cinema-showtimes/internal/provider"
	"github.com/iliyamo/cinema-showtimes/internal/queue"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
	"github.com/iliyamo/cinema-showtimes/internal/retry"
	"github.com/iliyamo/cinema-showtimes/internal/router"
	queue_publisher "github.com/iliyamo/cinema-showtimes/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		FileSizeMB: 50,
		FileCount:  5,
		Console:    cfg.IsDev(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Shared(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}
	repo := repository.NewShowtimeRepo(db)

	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()

	popts := provider.Options{
		HTTP:     &http.Client{Timeout: cfg.ProviderTimeout},
		Limiter:  provider.NewLimiter(cfg.ProviderRate),
		Cache:    provider.NewCache(rdb),
		CacheTTL: cfg.ProviderTTL,
		Retry:    retry.Default,
		Log:      logger.Component("provider"),
	}
	tmdb := provider.NewTMDB(cfg.TMDBAPIKey, cfg.TMDBBaseURL, popts)
	omdb := provider.NewOMDb(cfg.OMDBAPIKey, cfg.OMDBBaseURL, popts)

	cat := catalog.NewService(repo, tmdb, omdb, catalog.Options{
		Location:   cfg.Location,
		TicketBase: cfg.TicketingBase,
		Retry:      retry.Default,
		Log:        logger.Component("catalog"),
	})

	invalidate := queue.Invalidator{Redis: rdb, Prefix: cacheCfg.Prefix}
	pub := queue_publisher.New(cfg.AMQPURL, invalidate.Handle, logger.Component("publisher"))

	go func() {
		err := queue.StartCatalogConsumer(ctx, cfg.AMQPURL, invalidate.Handle, logger.Component("catalog-consumer"))
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("catalog consumer stopped")
		}
	}()

	janitor := jobs.NewJanitor(repo, pub, cfg.Location, logger.Component("janitor"))
	cron, err := janitor.Start(cfg.JanitorCron)
	if err != nil {
		log.Fatal().Err(err).Msg("janitor not scheduled")
	}
	if cron != nil {
		defer cron.Stop()
	} else {
		log.Info().Msg("janitor disabled")
	}

	auth, err := handler.NewAuthHandler(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("admin password hash failed")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(logger.Component("http")))

	h := router.Handlers{
		Public: handler.NewPublicHandler(cat),
		Admin:  handler.NewAdminHandler(repo, cat, pub, logger.Component("admin")),
		Auth:   auth,
		Ready:  handler.Ready(repo),
	}
	g := router.Guards{
		Cache:     middleware.NewRedisCache(cacheCfg, rdb),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger.Component("ratelimit")),
		JWTSecret: cfg.JWTSecret,
	}
	router.RegisterRoutes(e, h)
	router.RegisterPublic(e, h, g)
	router.RegisterAdmin(e, h, g)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("zone", cfg.Location.String()).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdown); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	_ = db.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
}
