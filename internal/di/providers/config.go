// Package providers contains dependency injection providers for shelfwise.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfwise/internal/config"
	"github.com/listenupapp/shelfwise/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Shelfwise",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"docstore_backend", cfg.DocStore.Backend,
		"credential_scheme", cfg.Users.CredentialScheme,
		"local_state_path", cfg.Local.Path,
	)

	return log, nil
}
