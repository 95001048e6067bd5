package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/saudecomunitaria/buscativa/internal/config"
	v1 "github.com/saudecomunitaria/buscativa/internal/handler/v1"
	"github.com/saudecomunitaria/buscativa/internal/repository"
	"github.com/saudecomunitaria/buscativa/internal/service"
	"github.com/saudecomunitaria/buscativa/pkg/auth"
	"github.com/saudecomunitaria/buscativa/pkg/database"
	"github.com/saudecomunitaria/buscativa/pkg/logger"
	"github.com/saudecomunitaria/buscativa/pkg/metrics"
	"github.com/saudecomunitaria/buscativa/pkg/tracer"
)

func main() {
	// .env is optional; real deployments inject environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector("buscativa")
	jwtManager := auth.NewJWTManager(cfg.JWT)

	patientRepo := repository.NewPatientRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	visitRepo := repository.NewOutreachRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, collector, log)
	authSvc := service.NewAuthService(userRepo, jwtManager, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, collector, log)
	apptSvc := service.NewAppointmentService(apptRepo, patientRepo, auditSvc, collector, log)
	worklistSvc := service.NewWorkListService(
		patientRepo, apptRepo, visitRepo,
		cfg.FollowUp.DefaultIntervalDays, cfg.Outreach.CountryCode,
		collector, log,
	)
	outreachSvc := service.NewOutreachService(visitRepo, worklistSvc, auditSvc, collector, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:      cfg,
		Logger:      log,
		JWTManager:  jwtManager,
		Collector:   collector,
		Auth:        v1.NewAuthHandler(authSvc),
		Patient:     v1.NewPatientHandler(patientSvc),
		Appointment: v1.NewAppointmentHandler(apptSvc),
		Territory:   v1.NewTerritoryHandler(worklistSvc, outreachSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("address", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	// Flush buffered audit entries before the process exits.
	auditSvc.Shutdown()

	log.Info("server stopped cleanly")
	return nil
}
