package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pepperumo/bodysharing-website/internal/application"
	"github.com/pepperumo/bodysharing-website/internal/cloudinary"
	"github.com/pepperumo/bodysharing-website/internal/config"
	"github.com/pepperumo/bodysharing-website/internal/handler"
	"github.com/pepperumo/bodysharing-website/internal/mailer"
	"github.com/pepperumo/bodysharing-website/internal/qrcode"
	"github.com/pepperumo/bodysharing-website/internal/queue"
	"github.com/pepperumo/bodysharing-website/internal/store"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func newLogger(cfg config.App) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

func runHTTP(cfg config.App, log zerolog.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("db not reachable, falling back to in-memory store")
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	if db != nil {
		if err := store.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Warn().Err(err).Msg("migrations failed")
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "bodysharing:events")
	}

	var mail mailer.Sender
	if cfg.SESRegion != "" {
		ses, serr := mailer.NewSES(context.Background(), cfg.SESRegion)
		if serr != nil {
			log.Warn().Err(serr).Msg("ses unavailable, logging mail instead")
			mail = &mailer.LogSender{Log: log}
		} else {
			mail = ses
		}
	} else {
		mail = &mailer.LogSender{Log: log}
	}

	// Cloudinary client (nil when not configured)
	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Info().Str("cloud", cfg.CloudinaryCloudName).Msg("cloudinary configured")
	} else {
		log.Info().Msg("cloudinary not configured, photo upload disabled")
	}

	var repo application.Store
	if db != nil {
		repo = application.NewRepository(db.Client)
	} else {
		// Keeps the service usable in local development without Postgres.
		repo = application.NewMemoryStore()
	}

	svc := application.NewService(repo, mail, qrcode.NewQRServer(), q, application.Settings{
		BaseURL:    cfg.BaseURL,
		FromEmail:  cfg.EmailFrom,
		AdminEmail: cfg.AdminEmail,
		Event:      cfg.Event,
	}, log)

	h := &handler.Handler{
		Service: svc,
		Mail:    mail,
		CDN:     cdnClient,
		Cfg:     cfg,
		Log:     log,
		DB:      db,
		Redis:   redisClient,
	}
	r := handler.NewRouter(h)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server forced shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}
