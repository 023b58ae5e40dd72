package kamba

import (
	"context"
	"errors"
	"sync"

	"github.com/shaharia-lab/kamba/observability"
)

var (
	// ErrNoTitleGenerator is returned by UpdateChatTitle on a manager built without one.
	ErrNoTitleGenerator = errors.New("no title generator configured")
	// ErrChatNotFound is returned when an operation names a chat that no longer exists.
	ErrChatNotFound = errors.New("chat not found")
)

// TitleGenerator produces a short title for a conversation transcript.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, conversationHistory string) (string, error)
}

// ChatHistoryManager owns the chat list and the active chat pointer. Every mutation is
// written through to the KeyValueStore once the in-memory update is done; storage
// failures are logged and never returned, so the session keeps working in memory.
type ChatHistoryManager struct {
	store  KeyValueStore
	titles TitleGenerator
	logger observability.Logger
	newID  IDGenerator

	mu           sync.RWMutex
	chats        []Chat
	activeChatID string
	loading      bool
	readOnly     bool
}

// ManagerOption configures a ChatHistoryManager.
type ManagerOption func(*ChatHistoryManager)

// WithManagerLogger sets the logger used for absorbed failures.
func WithManagerLogger(logger observability.Logger) ManagerOption {
	return func(m *ChatHistoryManager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces the UUID generator, mostly for deterministic tests.
func WithIDGenerator(gen IDGenerator) ManagerOption {
	return func(m *ChatHistoryManager) {
		m.newID = gen
	}
}

// WithReadOnly keeps every change in memory and never writes to the store.
func WithReadOnly() ManagerOption {
	return func(m *ChatHistoryManager) {
		m.readOnly = true
	}
}

// NewChatHistoryManager creates a manager in the loading state. Call Initialize before use.
func NewChatHistoryManager(store KeyValueStore, titles TitleGenerator, opts ...ManagerOption) *ChatHistoryManager {
	m := &ChatHistoryManager{
		store:   store,
		titles:  titles,
		logger:  observability.NewNullLogger(),
		newID:   NewID,
		chats:   []Chat{},
		loading: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize restores the persisted history. Missing or malformed history falls back to a
// single fresh chat; it never fails. On return at least one chat exists and is active.
func (m *ChatHistoryManager) Initialize(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, err := LoadSnapshot(ctx, m.store)
	switch {
	case err != nil:
		m.logger.WithErr(err).Warn("failed to load chat history, starting fresh")
	case snapshot == nil:
		m.logger.Debug("no stored chat history")
	default:
		m.chats = snapshot.Chats
		m.activeChatID = snapshot.ActiveChatID
		m.logger.WithFields(map[string]interface{}{
			"chats":   len(m.chats),
			"chat_id": m.activeChatID,
		}).Info("chat history restored")
	}

	if len(m.chats) == 0 {
		m.chats = []Chat{}
		m.activeChatID = ""
		m.createNewChatLocked(true)
	}

	m.loading = false
	m.persistLocked(ctx)
}

// IsLoading reports whether Initialize has not completed yet.
func (m *ChatHistoryManager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Chats returns a copy of the chat list, newest first.
func (m *ChatHistoryManager) Chats() []Chat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chats := make([]Chat, len(m.chats))
	for i := range m.chats {
		chats[i] = m.chats[i].Clone()
	}
	return chats
}

// ActiveChatID returns the active pointer as stored, which may name no existing chat.
func (m *ChatHistoryManager) ActiveChatID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeChatID
}

// ActiveChat returns a copy of the active chat, or nil when the pointer resolves to nothing.
func (m *ChatHistoryManager) ActiveChat() *Chat {
	return m.Chat(m.ActiveChatID())
}

// Chat returns a copy of the chat with the given id, or nil.
func (m *ChatHistoryManager) Chat(id string) *Chat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := indexOfChat(m.chats, id)
	if idx < 0 {
		return nil
	}
	chat := m.chats[idx].Clone()
	return &chat
}

// CreateNewChat prepends a fresh chat and returns its id. When the active chat is still
// pristine no chat is created; that chat is reused instead.
func (m *ChatHistoryManager) CreateNewChat(ctx context.Context, switchAfterCreation bool) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.createNewChatLocked(switchAfterCreation)
	m.persistLocked(ctx)
	return id
}

func (m *ChatHistoryManager) createNewChatLocked(switchAfterCreation bool) string {
	if idx := indexOfChat(m.chats, m.activeChatID); idx >= 0 && m.chats[idx].IsPristine() {
		return m.chats[idx].ID
	}

	chat := NewChat(m.newID())
	m.chats = append([]Chat{chat}, m.chats...)
	if switchAfterCreation {
		m.activeChatID = chat.ID
	}
	return chat.ID
}

// SwitchChat points the active chat at id without checking that it exists.
func (m *ChatHistoryManager) SwitchChat(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activeChatID = id
	m.persistLocked(ctx)
}

// DeleteChat removes the chat with the given id. When the active chat goes, the first
// remaining chat takes over. An emptied list is refilled with a new active chat.
func (m *ChatHistoryManager) DeleteChat(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining := make([]Chat, 0, len(m.chats))
	for _, chat := range m.chats {
		if chat.ID != id {
			remaining = append(remaining, chat)
		}
	}
	m.chats = remaining

	if m.activeChatID == id && len(m.chats) > 0 {
		m.activeChatID = m.chats[0].ID
	}

	if len(m.chats) == 0 {
		replacement := NewChat(m.newID())
		m.chats = []Chat{replacement}
		m.activeChatID = replacement.ID
	}

	m.persistLocked(ctx)
}

// AddMessage appends message to the active chat and clears its suggestions. An empty id is
// replaced by a generated one. It returns the stored id, or "" when no chat is active.
func (m *ChatHistoryManager) AddMessage(ctx context.Context, message Message) string {
	id, _ := m.AddMessageTo(ctx, m.ActiveChatID(), message)
	return id
}

// AddMessageTo appends message to the chat with the given id and clears its suggestions.
func (m *ChatHistoryManager) AddMessageTo(ctx context.Context, chatID string, message Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := indexOfChat(m.chats, chatID)
	if idx < 0 {
		return "", ErrChatNotFound
	}

	if message.ID == "" {
		message.ID = m.newID()
	}

	chat := &m.chats[idx]
	chat.Messages = append(append([]Message(nil), chat.Messages...), message)
	chat.Suggestions = []string{}

	m.persistLocked(ctx)
	return message.ID, nil
}

// LoadSuggestions replaces the active chat's quick replies; an empty slice clears them.
func (m *ChatHistoryManager) LoadSuggestions(ctx context.Context, suggestions []string) {
	_ = m.LoadSuggestionsFor(ctx, m.ActiveChatID(), suggestions)
}

// LoadSuggestionsFor replaces the quick replies of the chat with the given id.
func (m *ChatHistoryManager) LoadSuggestionsFor(ctx context.Context, chatID string, suggestions []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := indexOfChat(m.chats, chatID)
	if idx < 0 {
		return ErrChatNotFound
	}

	m.chats[idx].Suggestions = append([]string{}, suggestions...)
	m.persistLocked(ctx)
	return nil
}

// UpdateChatTitle asks the title generator to name the active chat. On failure the title is
// left as it was; the error is logged and returned for callers that want to surface it.
func (m *ChatHistoryManager) UpdateChatTitle(ctx context.Context, conversationHistory string) error {
	chatID := m.ActiveChatID()
	if m.Chat(chatID) == nil {
		return nil
	}
	return m.UpdateChatTitleFor(ctx, chatID, conversationHistory)
}

// UpdateChatTitleFor names the chat with the given id. A chat deleted while the title was
// being generated is left alone.
func (m *ChatHistoryManager) UpdateChatTitleFor(ctx context.Context, chatID string, conversationHistory string) error {
	if m.Chat(chatID) == nil {
		return ErrChatNotFound
	}
	if m.titles == nil {
		return ErrNoTitleGenerator
	}

	log := m.logger.WithFields(map[string]interface{}{"chat_id": chatID})
	title, err := m.titles.GenerateTitle(ctx, conversationHistory)
	if err != nil {
		log.WithErr(err).Error("failed to generate chat title")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := indexOfChat(m.chats, chatID)
	if idx < 0 {
		log.Debug("chat deleted before its title arrived")
		return nil
	}
	m.chats[idx].Title = title
	m.persistLocked(ctx)
	return nil
}

func (m *ChatHistoryManager) persistLocked(ctx context.Context) {
	if m.loading || m.readOnly {
		return
	}

	err := SaveSnapshot(ctx, m.store, HistorySnapshot{
		Chats:        m.chats,
		ActiveChatID: m.activeChatID,
	})
	if err != nil {
		m.logger.WithErr(err).Error("failed to save chat history")
	}
}
