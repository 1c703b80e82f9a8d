package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"accounts/internal/config"
	"accounts/internal/database"
	"accounts/internal/handlers"
	"accounts/internal/repositories"
	"accounts/internal/services"
	"accounts/pkg/logger"
	"accounts/pkg/rabbitmq"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// App holds the wired components of the accounts worker.
type App struct {
	cfg *config.Config
	log *logrus.Logger
	db  *gorm.DB
	mq  *rabbitmq.Client

	Users        repositories.UserRepository
	Validator    *services.CredentialValidator
	Registration *services.RegistrationService
}

// NewApp opens storage, connects to RabbitMQ when enabled and builds the services.
func NewApp(cfg *config.Config, log *logrus.Logger) (*App, error) {
	app := &App{cfg: cfg, log: log}

	// --- Storage ---
	if cfg.Database.Driver == config.DriverMemory {
		app.Users = repositories.NewMockUserRepository()
	} else {
		db, err := database.Open(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.Users = repositories.NewGORMUserRepository(db)
	}

	// --- RabbitMQ ---
	var publisher services.EventPublisher
	if cfg.RabbitMQ.Enabled {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:          cfg.RabbitMQ.URL,
			RequestQueue: cfg.RabbitMQ.RequestQueue,
			EventQueue:   cfg.RabbitMQ.EventQueue,
		}, log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		app.mq = mq
		publisher = mq
	}

	// --- Services ---
	hasher, err := services.NewPasswordHasher(cfg.Password)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Validator = services.NewCredentialValidator(app.Users, hasher, log)
	app.Registration = services.NewRegistrationService(app.Validator, app.Users, publisher, log)

	return app, nil
}

// Start begins consuming registration requests. Without RabbitMQ it does nothing.
func (a *App) Start() error {
	if a.mq == nil {
		a.log.Info("RabbitMQ disabled, not consuming registration requests")
		return nil
	}
	handler := handlers.NewRegistrationHandler(a.Registration, a.mq, a.cfg.App.RequestTimeout, a.log)
	return a.mq.ConsumeRegistrationRequests(handler.HandleDelivery)
}

// Close releases RabbitMQ and database resources.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		errs = append(errs, a.mq.Close())
	}
	if a.db != nil {
		errs = append(errs, database.Close(a.db))
	}
	return errors.Join(errs...)
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)

	app, err := NewApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start")
	}

	if err := app.Start(); err != nil {
		app.Close()
		log.WithError(err).Fatal("failed to start RabbitMQ consumer")
	}
	logger.LogInfo(log, "accounts worker started", logrus.Fields{
		"driver":    cfg.Database.Driver,
		"algorithm": cfg.Password.Algorithm,
	})

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.Close(); err != nil {
		logger.LogError(log, "error during shutdown", err, nil)
	}
	logger.LogInfo(log, "accounts worker stopped", nil)
}
