// Package cli provides the startup steps shared by the budget commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budget/internal/config"
	applog "budget/internal/log"
	"budget/internal/storage"
)

// SetupLogger builds the process logger at the given level, writing to w,
// and makes it the slog default.
func SetupLogger(level string, w io.Writer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	if w != nil {
		cfg.Output = w
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadAndValidateConfig loads configuration, applies the backend URL
// override when set, and validates the result.
func LoadAndValidateConfig(apiURL string) (*config.Config, error) {
	cfg := config.Load()
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitTokenStore opens the token store selected by cfg. The returned close
// function is never nil when err is nil.
func InitTokenStore(logger *applog.Logger, cfg *config.Config) (storage.TokenStore, func() error, error) {
	if cfg.TokenBackend == "memory" {
		logger.Debug("Using in-memory token store")
		return storage.NewMemoryTokenStore(), func() error { return nil }, nil
	}

	origin, err := storage.Origin(cfg.APIURL)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.NewSQLiteTokenStore(cfg.StateDBPath, origin, logger)
	if err != nil {
		logger.Error("Failed to initialize token store", applog.FieldError, err, "path", cfg.StateDBPath)
		return nil, nil, fmt.Errorf("token store: %w", err)
	}
	return store, store.Close, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
