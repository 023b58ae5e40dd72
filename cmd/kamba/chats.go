package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaharia-lab/kamba"
	"github.com/shaharia-lab/kamba/internal/config"
)

func newChatsCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Inspect and manage stored chats",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored chats, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeApp, err := openHistory(cmd, v, true)
			if err != nil {
				return err
			}
			defer closeApp()

			printChats(cmd.OutOrStdout(), history.Chats(), history.ActiveChatID())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeApp, err := openHistory(cmd, v, false)
			if err != nil {
				return err
			}
			defer closeApp()

			for _, chat := range history.Chats() {
				if chat.ID == args[0] {
					history.DeleteChat(cmd.Context(), args[0])
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
					return nil
				}
			}
			return fmt.Errorf("chat %s not found", args[0])
		},
	})

	return cmd
}

// openHistory loads the stored chats without a model; title generation is unavailable.
// A read-only history never writes back, not even the chat Initialize creates.
func openHistory(cmd *cobra.Command, v *viper.Viper, readOnly bool) (*kamba.ChatHistoryManager, func(), error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateStore(); err != nil {
		return nil, nil, err
	}

	a, err := newStoreApp(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []kamba.ManagerOption{kamba.WithManagerLogger(a.logger)}
	if readOnly {
		opts = append(opts, kamba.WithReadOnly())
	}
	history := kamba.NewChatHistoryManager(a.store, nil, opts...)
	history.Initialize(cmd.Context())
	return history, a.Close, nil
}

func printChats(w io.Writer, chats []kamba.Chat, activeChatID string) {
	for _, chat := range chats {
		marker := " "
		if chat.ID == activeChatID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %-40s %d messages\n", marker, chat.ID, chat.Title, len(chat.Messages))
	}
}
