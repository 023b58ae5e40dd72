package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaharia-lab/kamba"
	"github.com/shaharia-lab/kamba/internal/config"
)

const replHelp = `Commands:
  /new                     start a new chat
  /list                    list chats
  /switch <id>             make another chat active
  /delete <id>             delete a chat
  /reply <n>               send quick reply number n
  /image <path> <question> ask about an image
  /save-audio <path>       write the last spoken answer as a WAV file
  /quit                    leave`

func newChatCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newChatApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				return fmt.Errorf("failed to create markdown renderer: %w", err)
			}

			r := &repl{
				history:      a.history,
				conversation: a.conversation,
				renderer:     renderer,
				out:          cmd.OutOrStdout(),
			}
			return r.run(ctx, cmd.InOrStdin())
		},
	}
}

type repl struct {
	history      *kamba.ChatHistoryManager
	conversation *kamba.Conversation
	renderer     *glamour.TermRenderer
	out          io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	r.showActive()
	fmt.Fprintln(r.out, "Type /help for commands.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if err := r.handle(ctx, line); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		return r.send(ctx, line, "")
	}

	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch command {
	case "/help":
		fmt.Fprintln(r.out, replHelp)
	case "/new":
		r.history.CreateNewChat(ctx, true)
		r.showActive()
	case "/list":
		printChats(r.out, r.history.Chats(), r.history.ActiveChatID())
	case "/switch":
		if rest == "" {
			return errors.New("usage: /switch <id>")
		}
		r.history.SwitchChat(ctx, rest)
		r.showActive()
	case "/delete":
		if rest == "" {
			return errors.New("usage: /delete <id>")
		}
		r.history.DeleteChat(ctx, rest)
		r.showActive()
	case "/reply":
		return r.reply(ctx, rest)
	case "/image":
		path, question, ok := strings.Cut(rest, " ")
		if !ok || strings.TrimSpace(question) == "" {
			return errors.New("usage: /image <path> <question>")
		}
		attachment, err := readImage(path)
		if err != nil {
			return err
		}
		return r.send(ctx, strings.TrimSpace(question), attachment)
	case "/save-audio":
		if rest == "" {
			return errors.New("usage: /save-audio <path>")
		}
		return r.saveAudio(rest)
	default:
		return fmt.Errorf("unknown command %s", command)
	}
	return nil
}

func (r *repl) send(ctx context.Context, text string, attachment string) error {
	fmt.Fprintln(r.out, "...")
	reply, err := r.conversation.SendMessage(ctx, text, attachment)
	if reply.Text != "" {
		r.render(reply.Text)
		r.showSuggestions()
	}
	if err != nil {
		if reply.Text == "" {
			return fmt.Errorf("não foi possível obter uma resposta da IA: %w", err)
		}
		return err
	}
	return nil
}

func (r *repl) reply(ctx context.Context, arg string) error {
	chat := r.history.ActiveChat()
	if chat == nil {
		return kamba.ErrNoActiveChat
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(chat.Suggestions) {
		return fmt.Errorf("choose a quick reply between 1 and %d", len(chat.Suggestions))
	}

	text := chat.Suggestions[n-1]
	fmt.Fprintf(r.out, "> %s\n...\n", text)
	reply, err := r.conversation.SelectQuickReply(ctx, text)
	if reply.Text != "" {
		r.render(reply.Text)
		r.showSuggestions()
	}
	return err
}

func (r *repl) saveAudio(path string) error {
	chat := r.history.ActiveChat()
	if chat == nil {
		return kamba.ErrNoActiveChat
	}
	for i := len(chat.Messages) - 1; i >= 0; i-- {
		if chat.Messages[i].Audio == "" {
			continue
		}
		uri, err := kamba.ParseDataURI(chat.Messages[i].Audio)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, uri.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(r.out, "saved %d bytes to %s\n", len(uri.Data), path)
		return nil
	}
	return errors.New("no spoken answer in this chat yet")
}

func (r *repl) showActive() {
	chat := r.history.ActiveChat()
	if chat == nil {
		fmt.Fprintln(r.out, "No active chat. Use /new or /switch.")
		return
	}
	fmt.Fprintf(r.out, "# %s (%s)\n", chat.Title, chat.ID)
	for _, m := range chat.Messages {
		if m.Role == kamba.MessageRoleUser {
			fmt.Fprintf(r.out, "> %s\n", m.Text)
			continue
		}
		r.render(m.Text)
	}
	r.showSuggestions()
}

func (r *repl) showSuggestions() {
	chat := r.history.ActiveChat()
	if chat == nil || len(chat.Suggestions) == 0 {
		return
	}
	for i, s := range chat.Suggestions {
		fmt.Fprintf(r.out, "  [%d] %s\n", i+1, s)
	}
}

func (r *repl) render(markdown string) {
	out, err := r.renderer.Render(markdown)
	if err != nil {
		fmt.Fprintln(r.out, markdown)
		return
	}
	fmt.Fprint(r.out, out)
}

func readImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	uri := kamba.DataURI{MIMEType: http.DetectContentType(data), Data: data}
	if !uri.IsImage() {
		return "", fmt.Errorf("%s is not an image (%s)", path, uri.MIMEType)
	}
	return uri.String(), nil
}
