package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, SpeechOpenAI, cfg.Speech)
	assert.Equal(t, "alloy", cfg.SpeechVoice)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "kamba.db", cfg.SQLitePath)
	assert.Equal(t, LogBackendZap, cfg.LogBackend)
	assert.Equal(t, 2.0, cfg.RequestsPerSecond)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Tracing)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("KAMBA_PROVIDER", "OpenAI")
	t.Setenv("KAMBA_STORE", "memory")
	t.Setenv("KAMBA_REQUEST_TIMEOUT", "15s")
	t.Setenv("KAMBA_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("KAMBA_TRACING", "true")
	t.Setenv("KAMBA_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0.5, cfg.RequestsPerSecond)
	assert.True(t, cfg.Tracing)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("KAMBA_STORE", "postgres")

	v := viper.New()
	v.Set("store", "memory")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("values reach the environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("KAMBA_SPEECH_VOICE=nova\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("KAMBA_SPEECH_VOICE") })

		require.NoError(t, LoadDotEnv(path))

		cfg, err := Load(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "nova", cfg.SpeechVoice)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Provider:          ProviderGemini,
			GeminiAPIKey:      "g-key",
			Speech:            SpeechOpenAI,
			OpenAIAPIKey:      "o-key",
			Store:             StoreSQLite,
			SQLitePath:        "kamba.db",
			LogBackend:        LogBackendZap,
			RequestsPerSecond: 2,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "llama" }, wantErr: true},
		{name: "gemini without key", mutate: func(c *Config) { c.GeminiAPIKey = "" }, wantErr: true},
		{name: "anthropic with key", mutate: func(c *Config) {
			c.Provider = ProviderAnthropic
			c.AnthropicAPIKey = "a-key"
		}},
		{name: "offline needs no keys", mutate: func(c *Config) {
			c.Provider = ProviderOffline
			c.GeminiAPIKey = ""
			c.Speech = SpeechNone
			c.OpenAIAPIKey = ""
		}},
		{name: "bedrock without secret", mutate: func(c *Config) {
			c.Provider = ProviderBedrock
			c.AWSRegion = "us-east-1"
			c.AWSAccessKeyID = "id"
		}, wantErr: true},
		{name: "speech none needs no openai key", mutate: func(c *Config) {
			c.Speech = SpeechNone
			c.OpenAIAPIKey = ""
		}},
		{name: "openai speech without key", mutate: func(c *Config) { c.OpenAIAPIKey = "" }, wantErr: true},
		{name: "unknown speech", mutate: func(c *Config) { c.Speech = "polly" }, wantErr: true},
		{name: "std log backend", mutate: func(c *Config) { c.LogBackend = LogBackendStd }},
		{name: "unknown store", mutate: func(c *Config) { c.Store = "redis" }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store = StorePostgres }, wantErr: true},
		{name: "unknown log backend", mutate: func(c *Config) { c.LogBackend = "zerolog" }, wantErr: true},
		{name: "zero rate", mutate: func(c *Config) { c.RequestsPerSecond = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
