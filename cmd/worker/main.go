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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-api/internal/repository/postgres"
	"github.com/clinicore/clinic-api/pkg/logger"
	messagingRedis "github.com/clinicore/clinic-api/pkg/messaging/redis"
	"github.com/clinicore/clinic-api/pkg/metrics"
	"github.com/clinicore/clinic-api/pkg/worker"
)

// WorkerConfig is read from the environment so the worker can run without a
// config file next to it.
type WorkerConfig struct {
	DatabaseHost     string `envconfig:"DB_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DB_PORT" default:"5432"`
	DatabaseUser     string `envconfig:"DB_USER" default:"postgres"`
	DatabasePassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DatabaseName     string `envconfig:"DB_NAME" default:"clinic"`
	DatabaseSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	BatchSize           int `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalSeconds int `envconfig:"OUTBOX_POLL_INTERVAL_SECONDS" default:"5"`
	MaxRetries          int `envconfig:"OUTBOX_MAX_RETRIES" default:"3"`

	HealthPort int `envconfig:"HEALTH_PORT" default:"8081"`
}

func setupHealthCheck(port int, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	var cfg WorkerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLogger := logger.NewLogger(nil)

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	broker, err := messagingRedis.NewRedisBroker(messagingRedis.Config{URL: cfg.RedisURL}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.BatchSize,
			PollInterval:  time.Duration(cfg.PollIntervalSeconds) * time.Second,
			RetryAttempts: cfg.MaxRetries,
			RetryDelay:    time.Second,
		},
		appLogger,
		metrics.NewMetrics("clinic", "worker"),
	)

	setupHealthCheck(cfg.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	processor.Start(ctx)
}
