package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/pepperumo/bodysharing-website/internal/application"
	"github.com/pepperumo/bodysharing-website/internal/config"
	"github.com/pepperumo/bodysharing-website/internal/mailer"
	"github.com/pepperumo/bodysharing-website/internal/queue"
	"github.com/pepperumo/bodysharing-website/internal/store"
)

// Worker consumes check-in events and mails the admin a door alert for
// each one. Check-in itself is already persisted by the API; this is
// pure notification fan-out, so failures here never touch records.
func main() {
	cfg := config.Load()
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "bodysharing:events")
	}

	var mail mailer.Sender
	if cfg.SESRegion != "" {
		ses, serr := mailer.NewSES(ctx, cfg.SESRegion)
		if serr != nil {
			log.Fatal().Err(serr).Msg("ses init failed")
		}
		mail = ses
	} else {
		mail = &mailer.LogSender{Log: log}
	}

	repo := application.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("queue consume init failed")
	}

	log.Info().Msg("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != "checkin" {
			continue
		}

		var evt application.CheckInEvent
		if err := queue.DecodeJSON(msg.Body, &evt); err != nil {
			log.Error().Err(err).Msg("bad check-in event payload")
			continue
		}

		app, err := repo.Get(ctx, evt.ApplicationID)
		if err != nil {
			log.Error().Err(err).Str("application_id", evt.ApplicationID).Msg("fetch application failed")
			continue
		}

		subject, html := mailer.CheckInAlert(app.Name, string(app.AttendeeType),
			evt.CheckedInAt.Format("3:04:05 PM"))
		if _, err := mail.Send(ctx, mailer.Message{
			To:      cfg.AdminEmail,
			From:    cfg.EmailFrom,
			Subject: subject,
			HTML:    html,
		}); err != nil {
			log.Error().Err(err).Str("application_id", app.ID).Msg("check-in alert mail failed")
			continue
		}

		log.Info().Str("application_id", app.ID).Str("name", app.Name).Msg("check-in alert sent")
	}

	log.Info().Msg("worker stopped")
}
