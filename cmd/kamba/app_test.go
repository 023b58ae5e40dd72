package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/kamba"
	"github.com/shaharia-lab/kamba/internal/config"
)

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Provider:          config.ProviderOffline,
		Speech:            config.SpeechNone,
		Store:             config.StoreSQLite,
		SQLitePath:        filepath.Join(t.TempDir(), "kamba.db"),
		LogBackend:        config.LogBackendStd,
		LogLevel:          "error",
		RequestsPerSecond: 100,
		RequestTimeout:    5 * time.Second,
		Tracing:           true,
	}
}

func TestNewChatApp_Offline(t *testing.T) {
	ctx := context.Background()
	cfg := offlineConfig(t)
	require.NoError(t, cfg.Validate())

	a, err := newChatApp(ctx, cfg)
	require.NoError(t, err)

	reply, err := a.conversation.SendMessage(ctx, "Olá Kamba", "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Text)
	assert.NotEmpty(t, reply.Audio)

	chat := a.history.ActiveChat()
	require.NotNil(t, chat)
	assert.Equal(t, "Kamba em modo offline", chat.Title)
	assert.Len(t, chat.Suggestions, 2)
	a.Close()

	reopened, err := newStoreApp(ctx, cfg)
	require.NoError(t, err)
	defer reopened.Close()
	history := kamba.NewChatHistoryManager(reopened.store, nil)
	history.Initialize(ctx)
	require.NotNil(t, history.ActiveChat())
	assert.Len(t, history.ActiveChat().Messages, 3)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		backend string
		level   string
		wantErr bool
	}{
		{backend: config.LogBackendZap, level: "debug"},
		{backend: config.LogBackendLogrus, level: "warn"},
		{backend: config.LogBackendStd, level: "info"},
		{backend: config.LogBackendZap, level: "loud", wantErr: true},
		{backend: config.LogBackendLogrus, level: "loud", wantErr: true},
		{backend: config.LogBackendStd, level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend+"/"+tt.level, func(t *testing.T) {
			logger, sync, err := newLogger(&config.Config{LogBackend: tt.backend, LogLevel: tt.level})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
			assert.NoError(t, sync())
		})
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	logger, _, err := newLogger(&config.Config{LogBackend: config.LogBackendStd, LogLevel: "error"})
	require.NoError(t, err)

	store, err := newStore(ctx, &config.Config{Store: config.StoreMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &kamba.InMemoryKeyValueStore{}, store)

	store, err = newStore(ctx, &config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "kv.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &kamba.SQLiteKeyValueStore{}, store)
	assert.NoError(t, store.(*kamba.SQLiteKeyValueStore).Close())

	_, err = newStore(ctx, &config.Config{Store: "redis"}, logger)
	assert.Error(t, err)
}

func TestNewSpeech(t *testing.T) {
	assert.IsType(t, kamba.SilentSpeechSynthesizer{}, newSpeech(&config.Config{Speech: config.SpeechNone}))
	assert.IsType(t, &kamba.OpenAISpeechSynthesizer{}, newSpeech(&config.Config{Speech: config.SpeechOpenAI, OpenAIAPIKey: "sk-test"}))
}
