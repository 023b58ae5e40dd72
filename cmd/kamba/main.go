package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaharia-lab/kamba/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	var envFile string

	root := &cobra.Command{
		Use:           "kamba",
		Short:         "Chat with Kamba, the Angolan digital friend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path of an optional .env file")
	bindConfigFlags(root, v)

	root.AddCommand(newChatCommand(v))
	root.AddCommand(newChatsCommand(v))
	return root
}

// bindConfigFlags registers the persistent flags backed by config keys. A flag left unset
// falls back to its KAMBA_ environment variable and then to the config default.
func bindConfigFlags(root *cobra.Command, v *viper.Viper) {
	flags := root.PersistentFlags()
	flags.String("provider", config.ProviderGemini, "Language model backend (gemini, openai, anthropic, bedrock, offline)")
	flags.String("model", "", "Model name, defaults per provider")
	flags.Float64("requests-per-second", 2, "Model requests allowed per second")
	flags.Duration("request-timeout", 60*time.Second, "Timeout of a single model request")
	flags.String("speech", config.SpeechOpenAI, "Speech backend (openai, none)")
	flags.String("speech-model", "tts-1", "Text to speech model")
	flags.String("speech-voice", "alloy", "Text to speech voice")
	flags.String("store", config.StoreSQLite, "Chat history store (memory, sqlite, postgres)")
	flags.String("sqlite-path", "kamba.db", "SQLite database file")
	flags.String("postgres-dsn", "", "Postgres connection string")
	flags.String("log-backend", config.LogBackendZap, "Logger (zap, logrus, std)")
	flags.String("log-level", "info", "Log level")
	flags.Bool("tracing", false, "Wrap model calls in OpenTelemetry spans")

	for _, name := range []string{
		"provider", "model", "requests-per-second", "request-timeout", "speech", "speech-model", "speech-voice",
		"store", "sqlite-path", "postgres-dsn", "log-backend", "log-level", "tracing",
	} {
		if err := v.BindPFlag(flagKey(name), flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
