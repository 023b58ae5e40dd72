package main

import (
	"context"
	"fmt"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shaharia-lab/kamba"
	"github.com/shaharia-lab/kamba/internal/config"
	"github.com/shaharia-lab/kamba/observability"
)

const defaultGeminiModel = "gemini-2.0-flash"

// app holds the components a command runs against, plus the resources to release.
type app struct {
	cfg          *config.Config
	logger       observability.Logger
	store        kamba.KeyValueStore
	history      *kamba.ChatHistoryManager
	conversation *kamba.Conversation

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.WithErr(err).Warn("failed to release resource")
		}
	}
}

// newStoreApp wires only the logger and the store, for commands that never call a model.
func newStoreApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, syncLogger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, closers: []func() error{syncLogger}}

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	if closer, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, closer.Close)
	}
	return a, nil
}

// newChatApp wires the full stack: store, model provider, speech, history and conversation.
func newChatApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a, err := newStoreApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := a.newProvider(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	provider = kamba.NewRateLimitedLLMProvider(provider, cfg.RequestsPerSecond, 1)
	if cfg.Tracing {
		provider = kamba.NewTracingLLMProvider(provider, cfg.Provider)
	}

	assistant, err := kamba.NewAssistant(provider, newSpeech(cfg),
		kamba.WithAssistantLogger(a.logger),
		kamba.WithRequestTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.history = kamba.NewChatHistoryManager(a.store, assistant, kamba.WithManagerLogger(a.logger))
	a.history.Initialize(ctx)
	a.conversation = kamba.NewConversation(a.history, assistant, kamba.WithConversationLogger(a.logger))
	return a, nil
}

func (a *app) newProvider(ctx context.Context) (kamba.LLMProvider, error) {
	cfg := a.cfg
	switch cfg.Provider {
	case config.ProviderGemini:
		model := cfg.Model
		if model == "" {
			model = defaultGeminiModel
		}
		service, err := kamba.NewGoogleGeminiService(ctx, cfg.GeminiAPIKey, model)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, service.Close)
		return kamba.NewGeminiProvider(service, a.logger)
	case config.ProviderOpenAI:
		return kamba.NewOpenAILLMProvider(kamba.OpenAIProviderConfig{
			Client: kamba.NewOpenAIClient(cfg.OpenAIAPIKey),
			Model:  openai.ChatModel(cfg.Model),
		}), nil
	case config.ProviderAnthropic:
		return kamba.NewAnthropicLLMProvider(kamba.AnthropicProviderConfig{
			Client: kamba.NewAnthropicClient(cfg.AnthropicAPIKey),
			Model:  anthropic.Model(cfg.Model),
		}), nil
	case config.ProviderBedrock:
		return kamba.NewBedrockLLMProvider(kamba.BedrockProviderConfig{
			Client: kamba.NewBedrockClient(cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey),
			Model:  cfg.Model,
		}), nil
	case config.ProviderOffline:
		return kamba.NewOfflineLLMProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newSpeech(cfg *config.Config) kamba.SpeechSynthesizer {
	if cfg.Speech == config.SpeechNone {
		return kamba.SilentSpeechSynthesizer{}
	}
	return kamba.NewOpenAISpeechSynthesizer(kamba.OpenAISpeechConfig{
		Client: kamba.NewOpenAIClient(cfg.OpenAIAPIKey),
		Model:  openai.SpeechModel(cfg.SpeechModel),
		Voice:  cfg.SpeechVoice,
	})
}

func newStore(ctx context.Context, cfg *config.Config, logger observability.Logger) (kamba.KeyValueStore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return kamba.NewInMemoryKeyValueStore(), nil
	case config.StoreSQLite:
		return kamba.NewSQLiteKeyValueStore(cfg.SQLitePath, logger)
	case config.StorePostgres:
		return kamba.OpenPostgresKeyValueStore(ctx, cfg.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func newLogger(cfg *config.Config) (observability.Logger, func() error, error) {
	switch cfg.LogBackend {
	case config.LogBackendLogrus:
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		logger := logrus.New()
		logger.SetLevel(level)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return observability.NewLogrusLogger(logger), func() error { return nil }, nil
	case config.LogBackendStd:
		level, err := observability.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		return observability.NewDefaultLogger(observability.WithLevel(level)), func() error { return nil }, nil
	default:
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zapConfig := zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		logger, err := zapConfig.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build zap logger: %w", err)
		}
		return observability.NewZapLogger(logger), func() error {
			// Syncing stderr fails on some terminals; there is nothing left to flush then.
			_ = logger.Sync()
			return nil
		}, nil
	}
}
