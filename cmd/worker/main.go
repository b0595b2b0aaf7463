package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"rollcall/internal/config"
	"rollcall/internal/logging"
	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Worker consumes notification jobs and delivers confirmation emails. It runs
// outside the API process, so a slow mail provider can never hold an
// attendance lock or delay a response.
func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:notifications")
	}

	var mailer notify.Mailer
	if cfg.MailBackend == "sendgrid" && cfg.SendGridKey != "" {
		mailer = notify.NewSendgridMailer(cfg.SendGridKey, cfg.MailFromName, cfg.MailFromAddr)
		log.Info().Msg("using sendgrid mailer")
	} else {
		mailer = notify.NewConsoleMailer(log)
		log.Info().Msg("using console mailer")
	}
	sender := notify.NewSender(mailer, log)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("queue consume init failed")
	}

	log.Info().Msg("worker started, waiting for notifications")
	for msg := range messages {
		sender.Handle(ctx, msg)
	}

	log.Info().Msg("worker stopped")
}
