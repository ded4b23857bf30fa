package config

import "testing"

func TestNewConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_VOICE", "")
	t.Setenv("MONGODB_DATABASE", "")
	t.Setenv("CAPTURE_FRAME_SIZE", "")

	cfg := NewConfigFromEnv()
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Expected default model, got %q", cfg.Model)
	}
	if cfg.Voice != DefaultVoice {
		t.Errorf("Expected default voice, got %q", cfg.Voice)
	}
	if cfg.FrameSize != DefaultFrameSize {
		t.Errorf("Expected default frame size, got %d", cfg.FrameSize)
	}
	if cfg.MongoDatabase != "speakright" {
		t.Errorf("Expected default database, got %q", cfg.MongoDatabase)
	}
}

func TestNewConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_MODEL", "custom-model")
	t.Setenv("CAPTURE_FRAME_SIZE", "2048")

	cfg := NewConfigFromEnv()
	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %q", cfg.Port)
	}
	if cfg.Model != "custom-model" {
		t.Errorf("Expected custom model, got %q", cfg.Model)
	}
	if cfg.FrameSize != 2048 {
		t.Errorf("Expected frame size 2048, got %d", cfg.FrameSize)
	}
}

func TestNewConfigFromEnvIgnoresBadFrameSize(t *testing.T) {
	t.Setenv("CAPTURE_FRAME_SIZE", "not-a-number")
	if got := NewConfigFromEnv().FrameSize; got != DefaultFrameSize {
		t.Errorf("Expected default frame size, got %d", got)
	}

	t.Setenv("CAPTURE_FRAME_SIZE", "-1")
	if got := NewConfigFromEnv().FrameSize; got != DefaultFrameSize {
		t.Errorf("Expected default frame size for negative value, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{GeminiAPIKey: "key", JWTSecret: "secret"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	if err := (Config{JWTSecret: "secret"}).Validate(); err == nil {
		t.Error("Expected error for missing API key")
	}
	if err := (Config{GeminiAPIKey: "key"}).Validate(); err == nil {
		t.Error("Expected error for missing JWT secret")
	}
}
