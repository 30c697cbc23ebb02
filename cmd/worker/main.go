// cmd/worker/main.go
//
// Standalone delivery worker: consumes delivery tasks from RabbitMQ
// instead of the server's in-process pool. Run it when dispatch and
// delivery should scale independently.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/belldivine070/CMS/internal/config"
	"github.com/belldivine070/CMS/internal/db"
	"github.com/belldivine070/CMS/internal/mailer"
	"github.com/belldivine070/CMS/internal/model"
	"github.com/belldivine070/CMS/internal/queue"
	"github.com/belldivine070/CMS/internal/repository"
	"github.com/belldivine070/CMS/internal/service"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	deliveryLog := &repository.DeliveryLogRepository{DB: conn}

	transport := mailer.Throttle(
		mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		cfg.SendRatePerSec,
	)
	worker := service.NewDeliveryWorker(transport, cfg.MaxSendAttempts, cfg.RetryBackoff, log)

	broker, err := queue.DialAMQP(cfg.AMQPURL, cfg.TaskQueue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer broker.Close()

	msgs, err := broker.Consume()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	log.Info().Str("queue", cfg.TaskQueue).Msg("worker running, waiting for tasks")

	for d := range msgs {
		task, err := queue.DecodeTask(d.Body)
		if err != nil {
			log.Error().Err(err).Msg("invalid task payload")
			d.Ack(false)
			continue
		}

		// Retries happen inside Deliver, so the message is acked once
		// the outcome is on record, whatever that outcome was.
		outcome := worker.Deliver(context.Background(), task)
		attempt := &model.DeliveryAttempt{
			BroadcastID: task.BroadcastID,
			Recipient:   task.Recipient,
			Status:      outcome.Result,
			Attempts:    outcome.Attempts,
			LastError:   outcome.LastErr,
		}
		if err := deliveryLog.Record(attempt); err != nil {
			log.Error().Err(err).
				Int("broadcast_id", task.BroadcastID).
				Str("recipient", task.Recipient).
				Msg("failed to record delivery outcome")
		}
		d.Ack(false)
	}
}
