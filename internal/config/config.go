// Package config loads service configuration from the environment,
// with an optional YAML file (CONFIG_FILE) applied first so that
// environment variables always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServiceConfig holds process identity and listen addresses.
type ServiceConfig struct {
	Name        string `yaml:"name"`
	HTTPPort    string `yaml:"http_port"`
	MetricsPort string `yaml:"metrics_port"`
}

// UploadConfig holds upload handling limits and temp storage.
type UploadConfig struct {
	TempPath      string `yaml:"temp_path"`
	MaxFileSizeMB int64  `yaml:"max_file_size_mb"`
	MaxFileSize   int64  `yaml:"-"` // derived from MaxFileSizeMB
}

// ASRConfig holds recognition engine selection and audio parameters.
type ASRConfig struct {
	SupportedModels []string `yaml:"supported_models"`
	DefaultModel    string   `yaml:"default_model"`
	Language        string   `yaml:"language"`
	SampleRateHz    int      `yaml:"sample_rate_hz"`
}

// WindowingConfig controls the fixed-duration rewindowing of fused
// transcripts. A non-positive duration, or an overlap that leaves no
// positive step, disables rewindowing.
type WindowingConfig struct {
	DurationSec float64 `yaml:"duration_sec"`
	OverlapSec  float64 `yaml:"overlap_sec"`
}

// KafkaConfig holds completion-event publishing settings.
type KafkaConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	Principal string   `yaml:"principal"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console
}

// Configuration is the root config for the service.
type Configuration struct {
	Service       ServiceConfig       `yaml:"service"`
	Upload        UploadConfig        `yaml:"upload"`
	ASR           ASRConfig           `yaml:"asr"`
	Windowing     WindowingConfig     `yaml:"windowing"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Load builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, and environment variables, in that order.
func Load() (*Configuration, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.Upload.MaxFileSize = cfg.Upload.MaxFileSizeMB * 1024 * 1024
	return cfg, nil
}

func defaults() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Name:        "stereo-call-transcription-service",
			HTTPPort:    "8080",
			MetricsPort: "9090",
		},
		Upload: UploadConfig{
			TempPath:      "./temp",
			MaxFileSizeMB: 100,
		},
		ASR: ASRConfig{
			SupportedModels: []string{"mock", "google"},
			DefaultModel:    "mock",
			Language:        "th",
			SampleRateHz:    16000,
		},
		Windowing: WindowingConfig{
			DurationSec: 30.0,
			OverlapSec:  3.0,
		},
		Kafka: KafkaConfig{
			Enabled:   false,
			Topic:     "transcription.completed",
			Principal: "svc-stereo-transcriber",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

func applyEnv(cfg *Configuration) {
	cfg.Service.Name = envOrDefault("SERVICE_NAME", cfg.Service.Name)
	cfg.Service.HTTPPort = envOrDefault("HTTP_PORT", cfg.Service.HTTPPort)
	cfg.Service.MetricsPort = envOrDefault("METRICS_PORT", cfg.Service.MetricsPort)

	cfg.Upload.TempPath = envOrDefault("TEMP_PATH", cfg.Upload.TempPath)
	cfg.Upload.MaxFileSizeMB = envInt64("MAX_FILE_SIZE_MB", cfg.Upload.MaxFileSizeMB)

	cfg.ASR.SupportedModels = envList("ASR_SUPPORTED_MODELS", cfg.ASR.SupportedModels)
	cfg.ASR.DefaultModel = envOrDefault("ASR_DEFAULT_MODEL", cfg.ASR.DefaultModel)
	cfg.ASR.Language = envOrDefault("ASR_LANGUAGE", cfg.ASR.Language)
	cfg.ASR.SampleRateHz = envInt("ASR_SAMPLE_RATE_HZ", cfg.ASR.SampleRateHz)

	cfg.Windowing.DurationSec = envFloat("WINDOW_DURATION_SEC", cfg.Windowing.DurationSec)
	cfg.Windowing.OverlapSec = envFloat("WINDOW_OVERLAP_SEC", cfg.Windowing.OverlapSec)

	cfg.Kafka.Enabled = envBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	cfg.Kafka.Brokers = envList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.Topic = envOrDefault("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Kafka.Principal = envOrDefault("SERVICE_PRINCIPAL", cfg.Kafka.Principal)

	cfg.Observability.LogLevel = envOrDefault("LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.LogFormat = envOrDefault("LOG_FORMAT", cfg.Observability.LogFormat)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
