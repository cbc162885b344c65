package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"voicecast/internal/domain/audio"
	"voicecast/internal/domain/voice"
)

// Config is the typed view over the viper keys used by voicecast.
type Config struct {
	BaseURL string
	Timeout time.Duration

	Upload voice.UploadPolicy

	Audio    audio.Params
	Language string

	StageInterval time.Duration

	AuthDir      string
	AuthInMemory bool

	OutputDir      string
	PlaybackEngine string

	LogLevel  string
	LogFormat string
}

// SetDefaults registers every key with its default value.
func SetDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.timeout", 60*time.Second) // long enough for server side synthesis

	viper.SetDefault("upload.max_mb", 50)
	viper.SetDefault("upload.formats", []string{".wav", ".mp3", ".m4a", ".flac"})

	def := audio.DefaultParams()
	viper.SetDefault("audio.exaggeration", def.Exaggeration)
	viper.SetDefault("audio.temperature", def.Temperature)
	viper.SetDefault("audio.cfg_weight", def.CFGWeight)
	viper.SetDefault("audio.seed", def.Seed)

	viper.SetDefault("script.language", "en")
	viper.SetDefault("workflow.stage_interval", 8*time.Second)

	viper.SetDefault("auth.dir", filepath.Join(homeDir(), ".voicecast", "auth"))
	viper.SetDefault("auth.in_memory", false)

	viper.SetDefault("output.dir", ".")
	viper.SetDefault("playback.engine", "auto")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// Init wires viper to the config file, the environment and an optional .env file.
func Init() {
	// missing .env is fine
	_ = godotenv.Load()

	viper.SetConfigName("voicecast")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.voicecast")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("voicecast")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logrus.WithError(err).Warn("failed to read config file")
		}
	}
}

// Load builds a Config from the current viper state.
func Load() (*Config, error) {
	cfg := &Config{
		BaseURL: strings.TrimRight(viper.GetString("api.base_url"), "/"),
		Timeout: viper.GetDuration("api.timeout"),
		Upload: voice.UploadPolicy{
			MaxBytes: viper.GetInt64("upload.max_mb") * 1024 * 1024,
			Formats:  viper.GetStringSlice("upload.formats"),
		},
		Audio: audio.Params{
			Exaggeration: viper.GetFloat64("audio.exaggeration"),
			Temperature:  viper.GetFloat64("audio.temperature"),
			CFGWeight:    viper.GetFloat64("audio.cfg_weight"),
			Seed:         viper.GetInt("audio.seed"),
		},
		Language:       viper.GetString("script.language"),
		StageInterval:  viper.GetDuration("workflow.stage_interval"),
		AuthDir:        viper.GetString("auth.dir"),
		AuthInMemory:   viper.GetBool("auth.in_memory"),
		OutputDir:      viper.GetString("output.dir"),
		PlaybackEngine: viper.GetString("playback.engine"),
		LogLevel:       viper.GetString("log.level"),
		LogFormat:      viper.GetString("log.format"),
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url must be set")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("api.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.Upload.MaxBytes <= 0 {
		return nil, fmt.Errorf("upload.max_mb must be positive")
	}
	if len(cfg.Upload.Formats) == 0 {
		return nil, fmt.Errorf("upload.formats must list at least one extension")
	}
	if err := cfg.Audio.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio defaults: %w", err)
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return cfg, nil
}

// SetupLogging applies the log level and formatter to the standard logrus logger.
func (c *Config) SetupLogging() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.LogLevel, err)
	}
	logrus.SetLevel(level)

	switch c.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unsupported log.format %q", c.LogFormat)
	}
	return nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
