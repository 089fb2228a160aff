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

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/email"
	"github.com/clinicore/clinic-api/internal/handler"
	appointmentHandler "github.com/clinicore/clinic-api/internal/handler/appointment"
	authHandler "github.com/clinicore/clinic-api/internal/handler/auth"
	doctorHandler "github.com/clinicore/clinic-api/internal/handler/doctor"
	messageHandler "github.com/clinicore/clinic-api/internal/handler/message"
	patientHandler "github.com/clinicore/clinic-api/internal/handler/patient"
	vitalHandler "github.com/clinicore/clinic-api/internal/handler/vital"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/repository/postgres"
	"github.com/clinicore/clinic-api/internal/router"
	appointmentService "github.com/clinicore/clinic-api/internal/service/appointment"
	authService "github.com/clinicore/clinic-api/internal/service/auth"
	doctorService "github.com/clinicore/clinic-api/internal/service/doctor"
	messagingService "github.com/clinicore/clinic-api/internal/service/messaging"
	onboardingService "github.com/clinicore/clinic-api/internal/service/onboarding"
	patientService "github.com/clinicore/clinic-api/internal/service/patient"
	scheduleService "github.com/clinicore/clinic-api/internal/service/schedule"
	vitalsService "github.com/clinicore/clinic-api/internal/service/vitals"
	"github.com/clinicore/clinic-api/pkg/auth"
	"github.com/clinicore/clinic-api/pkg/logger"
	messagingRedis "github.com/clinicore/clinic-api/pkg/messaging/redis"
	"github.com/clinicore/clinic-api/pkg/metrics"
	"github.com/clinicore/clinic-api/pkg/security"
	"github.com/clinicore/clinic-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("clinic", "api")

	// Repositories
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	recordRepo := postgres.NewMedicalRecordRepository(db)
	vitalRepo := postgres.NewVitalRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Shared infrastructure
	hasher := security.NewBcryptHasher(0)
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	})
	notifier := email.NewService(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	})

	// Services
	slotPolicy := scheduleService.SlotPolicy{
		StartHour:       cfg.Schedule.StartHour,
		EndHour:         cfg.Schedule.EndHour,
		IntervalMinutes: cfg.Schedule.IntervalMinutes,
	}
	scheduleSvc := scheduleService.NewService(appointmentRepo, doctorRepo, slotPolicy)
	onboardingSvc := onboardingService.NewService(appointmentRepo, doctorRepo, m, appLogger)
	authSvc := authService.NewService(patientRepo, doctorRepo, jwtSvc, hasher)
	doctorSvc := doctorService.NewService(doctorRepo, outboxRepo, onboardingSvc, hasher, notifier, appLogger)
	patientSvc := patientService.NewService(patientRepo, recordRepo, doctorRepo, hasher)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo,
		patientRepo,
		doctorRepo,
		outboxRepo,
		scheduleSvc,
		notifier,
		m,
		appLogger,
	)
	vitalsSvc := vitalsService.NewService(vitalRepo, patientRepo, doctorRepo)
	messagingSvc := messagingService.NewService(messageRepo, patientRepo, doctorRepo, outboxRepo, appLogger)

	// Handlers
	handlers := router.Handlers{
		Auth:        authHandler.NewHandler(authSvc),
		Doctor:      doctorHandler.NewHandler(doctorSvc),
		Patient:     patientHandler.NewHandler(patientSvc),
		Appointment: appointmentHandler.NewHandler(appointmentSvc, scheduleSvc),
		Vital:       vitalHandler.NewHandler(vitalsSvc),
		Message:     messageHandler.NewHandler(messagingSvc),
		Health:      handler.NewHealthHandler(db),
	}

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(authMiddleware, handlers, appLogger, router.DefaultConfig())
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	// Outbox processor publishes domain events to Redis in the background.
	brokerLogger := log.With().Str("component", "broker").Logger()
	broker, err := messagingRedis.NewRedisBroker(messagingRedis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &brokerLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	processorCtx, stopProcessor := context.WithCancel(context.Background())
	defer stopProcessor()

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
		RetryAttempts: cfg.Outbox.MaxRetries,
		RetryDelay:    time.Second,
	}, appLogger, m)
	go outboxProcessor.Start(processorCtx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopProcessor()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
