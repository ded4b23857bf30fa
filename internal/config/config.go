// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
)

const (
	// DefaultModel is the native-audio conversational model used when
	// GEMINI_MODEL is unset.
	DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	// DefaultVoice is the prebuilt synthesis voice.
	DefaultVoice = "Zephyr"
	// DefaultFrameSize is the capture frame size in samples.
	DefaultFrameSize = 4096
)

// Config carries everything the server needs to run. MongoDB settings are
// optional; an empty MongoURI selects the in-memory training log store.
type Config struct {
	Port          string
	GeminiAPIKey  string
	Model         string
	Voice         string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string
	FrameSize     int
}

// NewConfigFromEnv reads configuration from environment variables,
// applying defaults for everything optional.
func NewConfigFromEnv() Config {
	cfg := Config{
		Port:          os.Getenv("PORT"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		Model:         os.Getenv("GEMINI_MODEL"),
		Voice:         os.Getenv("GEMINI_VOICE"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: os.Getenv("MONGODB_DATABASE"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		FrameSize:     DefaultFrameSize,
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = "speakright"
	}

	if sizeStr := os.Getenv("CAPTURE_FRAME_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			cfg.FrameSize = size
		}
	}

	return cfg
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}
