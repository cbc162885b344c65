package config

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"voicecast/internal/domain/audio"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "http://localhost:8000" || cfg.Timeout != 60*time.Second {
		t.Errorf("backend = %s %s", cfg.BaseURL, cfg.Timeout)
	}
	if cfg.Upload.MaxBytes != 50*1024*1024 || len(cfg.Upload.Formats) != 4 {
		t.Errorf("upload = %+v", cfg.Upload)
	}
	if cfg.Audio != audio.DefaultParams() || cfg.Language != "en" {
		t.Errorf("audio = %+v language = %s", cfg.Audio, cfg.Language)
	}
	if cfg.StageInterval != 8*time.Second || cfg.PlaybackEngine != "auto" {
		t.Errorf("workflow = %s engine = %s", cfg.StageInterval, cfg.PlaybackEngine)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	t.Setenv("VOICECAST_API_BASE_URL", "https://voice.example.com/")
	t.Setenv("VOICECAST_UPLOAD_MAX_MB", "10")
	t.Setenv("VOICECAST_AUDIO_SEED", "7")
	Init()

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "https://voice.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Upload.MaxBytes != 10*1024*1024 {
		t.Errorf("MaxBytes = %d", cfg.Upload.MaxBytes)
	}
	if cfg.Audio.Seed != 7 {
		t.Errorf("Seed = %d", cfg.Audio.Seed)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value any
		want  string
	}{
		{"api.base_url", "", "api.base_url"},
		{"api.timeout", "0s", "api.timeout"},
		{"upload.max_mb", 0, "upload.max_mb"},
		{"upload.formats", []string{}, "upload.formats"},
		{"audio.temperature", 0, "audio defaults"},
		{"audio.cfg_weight", 3.0, "audio defaults"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			viper.Reset()
			SetDefaults()
			viper.Set(tt.key, tt.value)

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	if err := cfg.SetupLogging(); err != nil {
		t.Fatal(err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T", logrus.StandardLogger().Formatter)
	}

	if err := (&Config{LogLevel: "loud"}).SetupLogging(); err == nil {
		t.Error("expected invalid level error")
	}
	if err := (&Config{LogLevel: "info", LogFormat: "xml"}).SetupLogging(); err == nil {
		t.Error("expected invalid format error")
	}
}
