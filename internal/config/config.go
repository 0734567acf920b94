package config

import (
	"fmt"
	"os"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Vision     VisionConfig     `mapstructure:"vision"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
}

type StorageConfig struct {
	Type        string `mapstructure:"type"`
	LocalPath   string `mapstructure:"local_path"`
	OriginalDir string `mapstructure:"original_dir"`
	DerivedDir  string `mapstructure:"derived_dir"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

type ProcessingConfig struct {
	MaxUploadSizeBytes int64    `mapstructure:"max_upload_size_bytes"`
	ThumbnailMaxSide   int      `mapstructure:"thumbnail_max_side"`
	AllowedMimeTypes   []string `mapstructure:"allowed_mime_types"`
}

type VisionConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	Temperature       float32 `mapstructure:"temperature"`
	RequestTimeoutSec int     `mapstructure:"request_timeout_sec"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(appConfig)
	if err := validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("storage_type", appConfig.Storage.Type).
		Int64("max_upload_size_bytes", appConfig.Processing.MaxUploadSizeBytes).
		Int("thumbnail_max_side", appConfig.Processing.ThumbnailMaxSide).
		Str("vision_model", appConfig.Vision.Model).
		Msg("Config loaded")

	return appConfig, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Processing.MaxUploadSizeBytes == 0 {
		cfg.Processing.MaxUploadSizeBytes = 5 * 1024 * 1024
	}
	if cfg.Processing.ThumbnailMaxSide == 0 {
		cfg.Processing.ThumbnailMaxSide = 300
	}
	if len(cfg.Processing.AllowedMimeTypes) == 0 {
		cfg.Processing.AllowedMimeTypes = []string{"image/jpeg", "image/png", "image/gif"}
	}
	if cfg.Vision.Model == "" {
		cfg.Vision.Model = "gpt-4o"
	}
	if cfg.Vision.MaxTokens == 0 {
		cfg.Vision.MaxTokens = 1000
	}
	if cfg.Vision.Temperature == 0 {
		cfg.Vision.Temperature = 0.7
	}
	if cfg.Vision.RequestTimeoutSec == 0 {
		cfg.Vision.RequestTimeoutSec = 60
	}
}

func validateConfig(cfg *Config) error {
	// Server
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.read_timeout_sec must be positive")
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		return fmt.Errorf("server.write_timeout_sec must be positive")
	}

	// Storage
	if cfg.Storage.Type == "" {
		return fmt.Errorf("storage.type is required (local|s3)")
	}
	if cfg.Storage.Type != "local" && cfg.Storage.Type != "s3" {
		return fmt.Errorf("storage.type must be 'local' or 's3'")
	}
	if cfg.Storage.Type == "local" && cfg.Storage.LocalPath == "" {
		return fmt.Errorf("storage.local_path is required for local storage")
	}
	if cfg.Storage.Type == "s3" {
		if cfg.Storage.S3Endpoint == "" {
			return fmt.Errorf("storage.s3_endpoint is required for s3 storage")
		}
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
		if cfg.Storage.S3AccessKey == "" || cfg.Storage.S3SecretKey == "" {
			return fmt.Errorf("storage.s3_access_key and storage.s3_secret_key are required for s3 storage")
		}
	}

	// Processing
	if cfg.Processing.MaxUploadSizeBytes <= 0 {
		return fmt.Errorf("processing.max_upload_size_bytes must be positive")
	}
	if cfg.Processing.ThumbnailMaxSide <= 0 {
		return fmt.Errorf("processing.thumbnail_max_side must be positive")
	}

	// Vision
	if cfg.Vision.APIKey == "" {
		zlog.Logger.Warn().Msg("vision.api_key is not set; process requests will fail against the real model")
	}
	if cfg.Vision.MaxTokens <= 0 {
		return fmt.Errorf("vision.max_tokens must be positive")
	}
	if cfg.Vision.RequestTimeoutSec <= 0 {
		return fmt.Errorf("vision.request_timeout_sec must be positive")
	}

	if cfg.Logging.Level == "" {
		return fmt.Errorf("logging.level is required")
	}

	return nil
}
