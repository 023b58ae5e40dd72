// Package config loads the settings of the kamba binary from flags, the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. KAMBA_PROVIDER.
const EnvPrefix = "KAMBA"

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderOffline   = "offline"

	SpeechOpenAI = "openai"
	SpeechNone   = "none"

	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	LogBackendZap    = "zap"
	LogBackendLogrus = "logrus"
	LogBackendStd    = "std"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Provider string
	Model    string

	Speech      string
	SpeechModel string
	SpeechVoice string

	Store       string
	SQLitePath  string
	PostgresDSN string

	LogBackend string
	LogLevel   string

	RequestsPerSecond float64
	RequestTimeout    time.Duration
	Tracing           bool

	GeminiAPIKey       string
	OpenAIAPIKey       string
	AnthropicAPIKey    string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model", "")
	v.SetDefault("speech", SpeechOpenAI)
	v.SetDefault("speech_model", "tts-1")
	v.SetDefault("speech_voice", "alloy")
	v.SetDefault("store", StoreSQLite)
	v.SetDefault("sqlite_path", "kamba.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("log_backend", LogBackendZap)
	v.SetDefault("log_level", "info")
	v.SetDefault("requests_per_second", 2.0)
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("tracing", false)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("aws_access_key_id", "")
	v.SetDefault("aws_secret_access_key", "")
}

// LoadDotEnv reads path into the process environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load resolves the configuration from v. Environment variables use the KAMBA_ prefix and
// take effect for every key registered by SetDefaults; bound flags win over both.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Provider:           strings.ToLower(v.GetString("provider")),
		Model:              v.GetString("model"),
		Speech:             strings.ToLower(v.GetString("speech")),
		SpeechModel:        v.GetString("speech_model"),
		SpeechVoice:        v.GetString("speech_voice"),
		Store:              strings.ToLower(v.GetString("store")),
		SQLitePath:         v.GetString("sqlite_path"),
		PostgresDSN:        v.GetString("postgres_dsn"),
		LogBackend:         strings.ToLower(v.GetString("log_backend")),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		RequestsPerSecond:  v.GetFloat64("requests_per_second"),
		RequestTimeout:     v.GetDuration("request_timeout"),
		Tracing:            v.GetBool("tracing"),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		AnthropicAPIKey:    v.GetString("anthropic_api_key"),
		AWSRegion:          v.GetString("aws_region"),
		AWSAccessKeyID:     v.GetString("aws_access_key_id"),
		AWSSecretAccessKey: v.GetString("aws_secret_access_key"),
	}

	return cfg, nil
}

// Validate checks the enumerated settings and that the selected backends have credentials.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: gemini_api_key is required for provider %q", ErrInvalidConfig, c.Provider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: openai_api_key is required for provider %q", ErrInvalidConfig, c.Provider)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: anthropic_api_key is required for provider %q", ErrInvalidConfig, c.Provider)
		}
	case ProviderBedrock:
		if c.AWSRegion == "" || c.AWSAccessKeyID == "" || c.AWSSecretAccessKey == "" {
			return fmt.Errorf("%w: aws_region, aws_access_key_id and aws_secret_access_key are required for provider %q", ErrInvalidConfig, c.Provider)
		}
	case ProviderOffline:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}

	switch c.Speech {
	case SpeechOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: openai_api_key is required for speech %q", ErrInvalidConfig, c.Speech)
		}
	case SpeechNone:
	default:
		return fmt.Errorf("%w: unknown speech backend %q", ErrInvalidConfig, c.Speech)
	}

	if err := c.ValidateStore(); err != nil {
		return err
	}

	switch c.LogBackend {
	case LogBackendZap, LogBackendLogrus, LogBackendStd:
	default:
		return fmt.Errorf("%w: unknown log backend %q", ErrInvalidConfig, c.LogBackend)
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests_per_second must be positive", ErrInvalidConfig)
	}
	return nil
}

// ValidateStore checks only the storage settings, for commands that never call a model.
func (c *Config) ValidateStore() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for store %q", ErrInvalidConfig, c.Store)
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for store %q", ErrInvalidConfig, c.Store)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	return nil
}
