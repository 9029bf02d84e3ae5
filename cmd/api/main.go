package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moneta/internal/config"
	"moneta/internal/database"
	"moneta/internal/logger"
	"moneta/internal/notify"
	"moneta/internal/server"
	"moneta/internal/services"
	"moneta/internal/validator"
	"moneta/internal/verification"

	_ "moneta/internal/docs" // Import swagger docs
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
)

// @title           Moneta API
// @version         1.0
// @description     Moneta is a personal finance backend: email-confirmed accounts, income and expense records, and balances.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := dbManager.DB()

	store, err := newCodeStore(ctx, appConfig, dbManager)
	if err != nil {
		return err
	}

	sender, err := newSender(appConfig)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(sender, appConfig.MailSendTimeout)

	// Initialize services
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db)
	authFlowService := services.NewAuthFlowService(
		userService,
		store,
		verification.RandomGenerator{},
		dispatcher,
		auditService,
		services.AuthFlowConfig{
			CodeTTL:       appConfig.VerificationCodeTTL,
			ResetTokenTTL: appConfig.ResetTokenTTL,
		},
	)

	router := server.NewRouter(server.Services{
		Users:      userService,
		AuthFlows:  authFlowService,
		Expenses:   services.NewExpenseService(db, auditService),
		Balances:   services.NewBalanceService(db),
		Categories: services.NewCategoryService(db, auditService),
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Moneta backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Let queued verification emails go out before exiting.
	dispatcher.Wait()
	log.Info("Server stopped")
	return nil
}

// newCodeStore picks the verification code backend and starts its janitor.
func newCodeStore(ctx context.Context, cfg *config.Config, dbManager *database.Manager) (verification.Store, error) {
	switch cfg.CodeStore {
	case "memory", "":
		store := verification.NewMemoryStore()
		go store.Run(ctx, sweepInterval)
		return store, nil
	case "database":
		store := verification.NewDBStore(dbManager.DB())
		go store.Run(ctx, sweepInterval)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported CODE_STORE %q", cfg.CodeStore)
	}
}

// newSender picks how verification codes are delivered.
func newSender(cfg *config.Config) (notify.Sender, error) {
	switch cfg.MailBackend {
	case "log", "":
		return notify.LogSender{}, nil
	case "smtp":
		return notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, cfg.VerificationCodeTTL), nil
	default:
		return nil, fmt.Errorf("unsupported MAIL_BACKEND %q", cfg.MailBackend)
	}
}
