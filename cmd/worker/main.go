package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/internal/notifier"
	"github.com/medwatch/triage-api/internal/repository"
	"github.com/medwatch/triage-api/internal/repository/postgres"
)

var (
	notificationsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_worker_delivered_total",
		Help: "The total number of notifications delivered",
	})
	notificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_worker_failed_total",
		Help: "The total number of notification delivery failures",
	})
	drainDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notification_worker_drain_duration_seconds",
		Help:    "Time spent draining the pending notification queue",
		Buckets: prometheus.DefBuckets,
	})
)

// WorkerConfig is loaded entirely from the environment; the worker runs as a
// sidecar and shares no config file with the API.
type WorkerConfig struct {
	DatabaseURL   string        `envconfig:"DATABASE_URL" required:"true"`
	BatchSize     int           `envconfig:"BATCH_SIZE" default:"100"`
	DrainInterval time.Duration `envconfig:"DRAIN_INTERVAL" default:"5s"`
	HealthPort    int           `envconfig:"HEALTH_PORT" default:"8081"`

	SMTPHost     string `envconfig:"SMTP_HOST" required:"true"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" required:"true"`

	// DoctorsEmail receives every broadcast-to-doctors notification.
	DoctorsEmail string `envconfig:"DOCTORS_EMAIL" required:"true"`
}

// NotificationWorker drains pending notification records and delivers the
// email leg. Dashboard delivery happens in the portal; only doctor
// broadcasts leave the system as mail.
type NotificationWorker struct {
	repo         repository.NotificationRepository
	sender       notifier.EmailSender
	logger       zerolog.Logger
	batchSize    int
	doctorsEmail string
}

func NewNotificationWorker(repo repository.NotificationRepository, sender notifier.EmailSender, logger zerolog.Logger, cfg WorkerConfig) *NotificationWorker {
	return &NotificationWorker{
		repo:         repo,
		sender:       sender,
		logger:       logger,
		batchSize:    cfg.BatchSize,
		doctorsEmail: cfg.DoctorsEmail,
	}
}

func (w *NotificationWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info().Msg("notification worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("notification worker shutting down")
			return
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.Error().Err(err).Msg("failed to drain notifications")
			}
		}
	}
}

func (w *NotificationWorker) drain(ctx context.Context) error {
	timer := prometheus.NewTimer(drainDuration)
	defer timer.ObserveDuration()

	pending, err := w.repo.ListPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending notifications: %w", err)
	}

	for _, n := range pending {
		if err := w.deliver(ctx, n); err != nil {
			notificationsFailed.Inc()
			w.logger.Error().Err(err).
				Str("notification_id", n.ID.String()).
				Msg("delivery failed")
			if markErr := w.repo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
				w.logger.Error().Err(markErr).
					Str("notification_id", n.ID.String()).
					Msg("failed to mark notification failed")
			}
			continue
		}

		notificationsDelivered.Inc()
		if err := w.repo.MarkSent(ctx, n.ID); err != nil {
			w.logger.Error().Err(err).
				Str("notification_id", n.ID.String()).
				Msg("failed to mark notification sent")
		}
	}

	return nil
}

func (w *NotificationWorker) deliver(ctx context.Context, n *model.Notification) error {
	// Patient-facing and staff-dashboard notifications are read from the
	// store by the portal; marking them sent makes them visible there.
	if n.RecipientID != model.BroadcastRecipientDoctors {
		return nil
	}
	return w.sender.Send(ctx, w.doctorsEmail, n.Title, n.Message)
}

func setupHealthCheck(port int, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			logger.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	var cfg WorkerConfig
	if err := envconfig.Process("triage", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker config")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	sender := notifier.NewEmailSender(notifier.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	worker := NewNotificationWorker(postgres.NewNotificationRepository(db), sender, logger, cfg)

	setupHealthCheck(cfg.HealthPort, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info().Msg("shutting down")
		cancel()
	}()

	worker.Start(ctx, cfg.DrainInterval)
}
