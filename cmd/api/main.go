package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medwatch/triage-api/internal/aggregator"
	"github.com/medwatch/triage-api/internal/classifier"
	"github.com/medwatch/triage-api/internal/config"
	alertHandler "github.com/medwatch/triage-api/internal/handler/alert"
	classificationHandler "github.com/medwatch/triage-api/internal/handler/classification"
	healthHandler "github.com/medwatch/triage-api/internal/handler/health"
	statsHandler "github.com/medwatch/triage-api/internal/handler/stats"
	vitalsHandler "github.com/medwatch/triage-api/internal/handler/vitals"
	"github.com/medwatch/triage-api/internal/middleware"
	"github.com/medwatch/triage-api/internal/mlclient"
	"github.com/medwatch/triage-api/internal/notifier"
	"github.com/medwatch/triage-api/internal/repository/postgres"
	"github.com/medwatch/triage-api/internal/router"
	alertService "github.com/medwatch/triage-api/internal/service/alert"
	statsService "github.com/medwatch/triage-api/internal/service/stats"
	vitalsService "github.com/medwatch/triage-api/internal/service/vitals"
	"github.com/medwatch/triage-api/pkg/logger"
	redisBroker "github.com/medwatch/triage-api/pkg/messaging/redis"
	"github.com/medwatch/triage-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	zl := appLogger.Zerolog()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, zl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("triage", "api")

	// Repositories
	alertRepo := postgres.NewAlertRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	vitalsRepo := postgres.NewVitalsRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Classifier backend
	mlClient := mlclient.New(mlclient.Config{
		BaseURL:    cfg.MLBackend.BaseURL,
		Timeout:    cfg.MLBackend.RecordTimeout,
		RetryCount: cfg.MLBackend.RetryCount,
	}, zl)
	batch := classifier.NewBatch(mlClient, cfg.MLBackend.RecordTimeout, zl, m)

	// Services
	alertSvc := alertService.NewService(alertRepo, broker, zl, m)
	sink := notifier.NewSink(notificationRepo, zl, m)
	vitalsSvc := vitalsService.NewService(vitalsRepo, patientRepo, sink, zl)
	statsSvc := statsService.NewService(
		alertSvc,
		alertRepo,
		patientRepo,
		appointmentRepo,
		cfg.Stats.CacheTTL,
		zl,
	)

	// Live view aggregator
	agg := aggregator.New(alertSvc, broker, zl, m)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := agg.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start alert aggregator")
	}
	defer agg.Stop()

	// Handlers
	auth := middleware.NewStaffAuth(cfg.JWT.Secret)
	alertH := alertHandler.NewHandler(alertSvc, agg, zl)
	classificationH := classificationHandler.NewHandler(batch, alertSvc)
	vitalsH := vitalsHandler.NewHandler(vitalsSvc)
	statsH := statsHandler.NewHandler(statsSvc)
	healthH := healthHandler.NewHandler(db, mlClient)

	r := router.NewRouter(
		auth,
		healthH,
		alertH,
		alertH,
		classificationH,
		vitalsH,
		statsH,
		router.Config{
			RateLimit:      rate.Limit(cfg.Server.RateLimit),
			RateBurst:      cfg.Server.RateBurst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORSConfig:     middleware.DefaultCORSConfig(),
			MetricsPrefix:  "triage_http",
		},
	)

	// No server-level write timeout: it would sever the long-lived SSE
	// alert stream. Short-lived routes are bounded by the request timeout
	// middleware instead.
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     r.Engine(),
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
}
