package kamba

// MessageRole identifies who produced a chat message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

const (
	// SeedMessageID is the identifier shared by the greeting every new chat starts with.
	SeedMessageID = "initial"

	// PlaceholderChatTitle is the title of a chat until one is generated.
	PlaceholderChatTitle = "Nova Conversa"

	// SeedMessageText is the greeting every new chat starts with.
	SeedMessageText = "Olá! Eu sou o **Kamba**, o teu amigo digital angolano!\n\nComo posso ajudar-te hoje?"
)

// Message is one turn in a conversation. Once appended to a chat it is never modified.
type Message struct {
	ID   string      `json:"id"`
	Role MessageRole `json:"role"`
	Text string      `json:"text"`
	// Audio is a data URI with synthesized speech, set on assistant turns only.
	Audio string `json:"audio,omitempty"`
	// Attachment is a data URI with an uploaded image, set on user turns only.
	Attachment string `json:"attachment,omitempty"`
}

// Chat is one conversation thread.
type Chat struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	Suggestions []string  `json:"suggestions"`
}

// SeedMessage returns the greeting placed at the start of every chat.
func SeedMessage() Message {
	return Message{
		ID:   SeedMessageID,
		Role: MessageRoleAssistant,
		Text: SeedMessageText,
	}
}

// NewChat returns a chat with the placeholder title and the seed greeting.
func NewChat(id string) Chat {
	return Chat{
		ID:          id,
		Title:       PlaceholderChatTitle,
		Messages:    []Message{SeedMessage()},
		Suggestions: []string{},
	}
}

// IsPristine reports whether the chat holds nothing but the seed greeting.
func (c Chat) IsPristine() bool {
	return len(c.Messages) == 1 && c.Messages[0].ID == SeedMessageID
}

// HasUserMessages reports whether the user has spoken in this chat yet.
func (c Chat) HasUserMessages() bool {
	for _, m := range c.Messages {
		if m.Role == MessageRoleUser {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the chat.
func (c Chat) Clone() Chat {
	clone := c
	clone.Messages = append([]Message(nil), c.Messages...)
	clone.Suggestions = append([]string{}, c.Suggestions...)
	return clone
}
