package internal

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Sectrans/internal/ffmpeg"
	"github.com/hbomb79/Sectrans/internal/http/registry"
	"github.com/hbomb79/Sectrans/internal/ingest"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// SectransConfig is the struct used to contain the
// various user config supplied by file, or
// manually inside the code.
type SectransConfig struct {
	API      registry.Config `json:"api"`
	APIToken string          `json:"api_token" env:"API_TOKEN"`
	App      AppConfig       `json:"app"`
	Probe    ffmpeg.Config   `json:"ffprobe"`
	Ingest   ingest.Config   `json:"ingest"`
	LogLevel string          `json:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// AppConfig identifies this recording server to the registry, and where
// on disk the car directories are found.
type AppConfig struct {
	CompanyID       json.Number `json:"empresa_id" env:"APP_EMPRESA_ID" validate:"required,numeric"`
	ServerID        json.Number `json:"servidor_id" env:"APP_SERVIDOR_ID" validate:"required,numeric"`
	SourceVideoPath string      `json:"source_video_path" env:"APP_SOURCE_VIDEO_PATH" validate:"required"`
}

// LoadFromFile loads a configuration file formatted in JSON in to a
// SectransConfig, applying environment overrides and defaults, and
// validates the result.
func (config *SectransConfig) LoadFromFile(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to load configuration from %s - %w", configPath, err)
	}

	return config.Validate()
}

// Validate expands the source path and checks the config is usable.
func (config *SectransConfig) Validate() error {
	expanded, err := homedir.Expand(config.App.SourceVideoPath)
	if err != nil {
		return fmt.Errorf("source_video_path %q cannot be expanded - %w", config.App.SourceVideoPath, err)
	}
	config.App.SourceVideoPath = expanded

	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("configuration is invalid - %w", err)
	}

	return nil
}
