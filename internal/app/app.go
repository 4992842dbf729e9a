// Package app holds process-wide state for the service.
package app

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stereo-call-transcription-service/internal/config"
	"stereo-call-transcription-service/internal/observability/logging"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
}

// New constructs a new Application from the provided configuration and
// initializes the global logger.
func New(cfg *config.Configuration) *Application {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{
		Cfg: cfg,
		Logger: log.With().
			Str("service", cfg.Service.Name).
			Logger(),
	}

	a.Logger.Info().
		Str("logLevel", cfg.Observability.LogLevel).
		Str("environment", os.Getenv("ENV")).
		Msg("Stereo call transcription service application created")
	return a
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Str("httpPort", a.Cfg.Service.HTTPPort).
		Str("defaultModel", a.Cfg.ASR.DefaultModel).
		Strs("supportedModels", a.Cfg.ASR.SupportedModels).
		Float64("windowDurationSec", a.Cfg.Windowing.DurationSec).
		Float64("windowOverlapSec", a.Cfg.Windowing.OverlapSec).
		Msg("Stereo call transcription service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Stereo call transcription service shutting down")
}
