// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/belldivine070/CMS/internal/config"
	"github.com/belldivine070/CMS/internal/controller"
	"github.com/belldivine070/CMS/internal/db"
	"github.com/belldivine070/CMS/internal/mailer"
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

	broadcastRepo := &repository.BroadcastRepository{DB: conn}
	userRepo := &repository.UserRepository{DB: conn}
	subscriberRepo := &repository.SubscriberRepository{DB: conn}
	deliveryLog := &repository.DeliveryLogRepository{DB: conn}

	resolver := &service.RecipientResolver{
		Users:       userRepo,
		Subscribers: subscriberRepo,
	}

	broadcastService := &service.BroadcastService{
		Broadcasts:    broadcastRepo,
		DeliveryLog:   deliveryLog,
		Resolver:      resolver,
		DefaultSender: cfg.DefaultSender,
		Log:           log,
	}

	// Delivery runs on the in-process pool by default; EXECUTOR=amqp
	// publishes tasks to RabbitMQ for cmd/worker to consume instead.
	switch cfg.Executor {
	case "amqp":
		broker, err := queue.DialAMQP(cfg.AMQPURL, cfg.TaskQueue)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer broker.Close()
		broadcastService.Executor = broker
		log.Info().Str("queue", cfg.TaskQueue).Msg("delivery tasks go to RabbitMQ")
	case "pool":
		transport := mailer.Throttle(
			mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
			cfg.SendRatePerSec,
		)
		worker := service.NewDeliveryWorker(transport, cfg.MaxSendAttempts, cfg.RetryBackoff, log)
		pool := queue.NewPool(cfg.WorkerCount, func(t queue.Task) {
			outcome := worker.Deliver(context.Background(), t)
			broadcastService.RecordOutcome(t, outcome)
		})
		defer pool.Close()
		broadcastService.Executor = pool
	default:
		log.Fatal().Str("executor", cfg.Executor).Msg("unknown executor, want pool or amqp")
	}

	scheduler := &service.Scheduler{
		Broadcasts: broadcastRepo,
		Dispatcher: broadcastService,
		Interval:   cfg.ScanInterval,
		Log:        log,
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer scheduler.Stop()

	broadcastController := &controller.BroadcastController{
		BroadcastService: broadcastService,
		Resolver:         resolver,
	}

	r := chi.NewRouter()
	r.Post("/broadcasts", broadcastController.CreateBroadcast)
	r.Get("/broadcasts", broadcastController.ListBroadcasts)
	r.Get("/broadcasts/{id}", broadcastController.GetBroadcastDetails)
	r.Post("/broadcasts/{id}/send", broadcastController.SendBroadcast)
	r.Post("/broadcasts/{id}/resend", broadcastController.ResendBroadcast)
	r.Get("/audiences/{audience}", broadcastController.PreviewAudience)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
