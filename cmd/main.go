package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"stereo-call-transcription-service/internal/app"
	"stereo-call-transcription-service/internal/config"
	"stereo-call-transcription-service/internal/events"
	apihttp "stereo-call-transcription-service/internal/http"
	"stereo-call-transcription-service/internal/observability"
	"stereo-call-transcription-service/internal/service/asr"
	googleasr "stereo-call-transcription-service/internal/service/asr/google"
	"stereo-call-transcription-service/internal/service/asr/mock"
	"stereo-call-transcription-service/internal/service/audio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start application")
	}
	defer application.Shutdown()

	splitter, err := audio.NewSplitter(cfg.Upload.TempPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize audio splitter")
	}

	ctx := context.Background()
	registry := buildEngines(ctx, cfg)

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	obsServer := observability.NewServer(":" + cfg.Service.MetricsPort)
	obsServer.Start()

	handler := apihttp.NewTranscribeHandler(cfg, splitter, registry, publisher)
	server := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      apihttp.NewRouter(handler),
		ReadTimeout:  5 * time.Minute, // large uploads on slow links
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Stereo call transcription service started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("observability shutdown error")
	}
}

// buildEngines registers every supported recognition engine. The mock
// engine always registers; the Google engine is skipped with a warning
// when credentials are unavailable so local runs still work.
func buildEngines(ctx context.Context, cfg *config.Configuration) *asr.Registry {
	engines := []asr.Engine{}

	if slices.Contains(cfg.ASR.SupportedModels, "mock") {
		engines = append(engines, mock.New())
	}

	if slices.Contains(cfg.ASR.SupportedModels, "google") {
		gcfg := googleasr.DefaultConfig()
		gcfg.SampleRateHz = int32(cfg.ASR.SampleRateHz)
		engine, err := googleasr.New(ctx, gcfg)
		if err != nil {
			log.Warn().Err(err).Msg("Google engine unavailable, continuing without it")
		} else {
			engines = append(engines, engine)
		}
	}

	if len(engines) == 0 {
		log.Fatal().Strs("supportedModels", cfg.ASR.SupportedModels).
			Msg("no recognition engines could be registered")
	}

	registry := asr.NewRegistry(engines...)
	log.Info().Strs("engines", registry.Names()).Msg("Recognition engines registered")
	return registry
}
