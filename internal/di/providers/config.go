// Package providers contains dependency injection providers for the BuddyRead server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/buddyread/buddyread-server/internal/config"
	"github.com/buddyread/buddyread-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.WithFields(map[string]any{
		"environment": cfg.App.Environment,
		"log_level":   cfg.Logger.Level,
		"data_path":   cfg.Data.BasePath,
		"base_url":    cfg.Server.BaseURL,
	}).Info("Starting BuddyRead Server")

	return log, nil
}
