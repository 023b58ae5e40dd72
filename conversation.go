package kamba

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shaharia-lab/kamba/observability"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoActiveChat is returned when a turn is started while no chat is active.
	ErrNoActiveChat = errors.New("no active chat")
	// ErrTurnInFlight is returned when a chat already has a turn waiting on the assistant.
	ErrTurnInFlight = errors.New("a message is already being processed for this chat")
)

// Responder is the part of the assistant a Conversation drives on every turn.
type Responder interface {
	Respond(ctx context.Context, query string, attachment string) (RespondResult, error)
	SuggestQuickReplies(ctx context.Context, conversationHistory string) ([]string, error)
}

// Conversation runs user turns against the active chat of a ChatHistoryManager.
// At most one turn per chat is in flight at any time.
type Conversation struct {
	history   *ChatHistoryManager
	assistant Responder
	logger    observability.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithConversationLogger sets the logger for turn lifecycle events.
func WithConversationLogger(logger observability.Logger) ConversationOption {
	return func(c *Conversation) {
		c.logger = logger
	}
}

// NewConversation creates a Conversation over history.
func NewConversation(history *ChatHistoryManager, assistant Responder, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		history:   history,
		assistant: assistant,
		logger:    observability.NewNullLogger(),
		inFlight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage appends the user's message to the active chat, then the assistant's answer,
// and refreshes the chat's quick replies. The first user turn of a chat also renames it.
// The whole turn stays on the chat that was active when it started, even if the user
// switches chats while the assistant is answering.
//
// Assistant errors are returned as they are; the user's message stays in the chat.
// A title failure is logged and does not fail the turn. ErrChatNotFound is returned when
// the chat is deleted before the answer can be stored.
func (c *Conversation) SendMessage(ctx context.Context, text string, attachment string) (Message, error) {
	active := c.history.ActiveChat()
	if active == nil {
		return Message{}, ErrNoActiveChat
	}
	chatID := active.ID

	if !c.acquire(chatID) {
		return Message{}, ErrTurnInFlight
	}
	defer c.release(chatID)

	log := c.logger.WithFields(map[string]interface{}{"chat_id": chatID})
	firstUserTurn := !active.HasUserMessages()

	if _, err := c.history.AddMessageTo(ctx, chatID, Message{
		Role:       MessageRoleUser,
		Text:       text,
		Attachment: attachment,
	}); err != nil {
		return Message{}, err
	}

	result, err := c.assistant.Respond(ctx, text, attachment)
	if err != nil {
		log.WithErr(err).Error("assistant failed to respond")
		return Message{}, err
	}

	reply := Message{
		Role:  MessageRoleAssistant,
		Text:  result.Text,
		Audio: result.Audio,
	}
	reply.ID, err = c.history.AddMessageTo(ctx, chatID, reply)
	if err != nil {
		log.WithErr(err).Warn("chat removed before the answer arrived")
		return Message{}, err
	}

	chat := c.history.Chat(chatID)
	if chat == nil {
		return reply, ErrChatNotFound
	}
	transcript := Transcript(chat.Messages)

	var g errgroup.Group
	if firstUserTurn {
		g.Go(func() error {
			// UpdateChatTitleFor logs its own failures.
			_ = c.history.UpdateChatTitleFor(ctx, chatID, transcript)
			return nil
		})
	}

	var suggestions []string
	g.Go(func() error {
		s, err := c.assistant.SuggestQuickReplies(ctx, transcript)
		if err != nil {
			return fmt.Errorf("failed to load quick replies: %w", err)
		}
		suggestions = s
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithErr(err).Error("follow-up generation failed")
		return reply, err
	}

	if err := c.history.LoadSuggestionsFor(ctx, chatID, suggestions); err != nil {
		return reply, err
	}
	return reply, nil
}

// SelectQuickReply consumes one of the active chat's suggestions as the next user message.
func (c *Conversation) SelectQuickReply(ctx context.Context, text string) (Message, error) {
	if c.history.ActiveChat() == nil {
		return Message{}, ErrNoActiveChat
	}
	c.history.LoadSuggestions(ctx, []string{})
	return c.SendMessage(ctx, text, "")
}

// Busy reports whether chatID has a turn waiting on the assistant.
func (c *Conversation) Busy(chatID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[chatID]
	return ok
}

func (c *Conversation) acquire(chatID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inFlight[chatID]; ok {
		return false
	}
	c.inFlight[chatID] = struct{}{}
	return true
}

func (c *Conversation) release(chatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, chatID)
}

// Transcript renders messages as "role: text" lines, the form the title and quick reply
// prompts expect.
func Transcript(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Text))
	}
	return strings.Join(lines, "\n")
}
