package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/config"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/payroll-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/kafka"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/rbac"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/postgresql"
	payrollService "github.com/cmlabs-hris/payroll-engine-go/internal/service/payroll"
	statutoryService "github.com/cmlabs-hris/payroll-engine-go/internal/service/statutory"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	employeeRepo := postgresql.NewEmployeeRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	statutoryRepo := postgresql.NewStatutoryRepository(db)
	outboxRepo := postgresql.NewOutboxRepository(db)
	transactor := postgresql.NewTransactor(db)

	rates := statutoryService.NewProvider(statutoryRepo, time.Now)
	calculator := payrollService.NewEmployeeCalculator(
		payrollService.NewElementAggregator(),
		payrollService.NewTaxCalculator(),
	)
	orchestrator := payrollService.NewOrchestrator(payrollService.OrchestratorDeps{
		Transactor: transactor,
		Employees:  employeeRepo,
		Payroll:    payrollRepo,
		Rates:      rates,
		Outbox:     outboxRepo,
		Calculator: calculator,
	},
		payrollService.WithWorkers(cfg.Payroll.Workers),
		payrollService.WithTopic(cfg.Kafka.PayrollTopic),
		payrollService.WithLogger(logger),
	)
	payrollSvc := payrollService.NewPayrollService(payrollRepo, employeeRepo, rates, orchestrator, calculator)

	enforcer, err := rbac.NewEnforcer(user.RolePermissions)
	if err != nil {
		return err
	}
	jwtService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("initializing jwt: %w", err)
	}

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.App.AllowedOrigins,
		JWTService:     jwtService,
		Permissions:    enforcer,
		Database:       db,
	}, appHTTP.NewPayrollHandler(payrollSvc, enforcer))

	// Outbox relay
	scheduler := cron.NewScheduler(logger)
	if cfg.KafkaEnabled() {
		publisher := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers))
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("Failed to close kafka publisher", "error", err)
			}
		}()
		outboxJobs := cron.NewOutboxJobs(outboxRepo, publisher, cfg.Kafka.OutboxBatchSize, logger)
		outboxJobs.RegisterJobs(scheduler, cfg.Kafka.OutboxPollInterval)
	} else {
		logger.Warn("KAFKA_BROKERS not set, payroll events stay in the outbox")
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
