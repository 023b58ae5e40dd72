package kamba

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedSnapshot is returned when persisted chat history fails validation.
var ErrMalformedSnapshot = errors.New("malformed chat history snapshot")

// chatHistorySchema describes the persisted chat list. Every chat must keep at least one message.
const chatHistorySchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "messages"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "title": {"type": "string"},
      "messages": {
        "type": "array",
        "minItems": 1,
        "items": {
          "type": "object",
          "required": ["id", "role", "text"],
          "properties": {
            "id": {"type": "string"},
            "role": {"enum": ["user", "assistant"]},
            "text": {"type": "string"},
            "audio": {"type": "string"},
            "attachment": {"type": "string"}
          }
        }
      },
      "suggestions": {
        "type": ["array", "null"],
        "items": {"type": "string"}
      }
    }
  }
}`

var chatHistorySchemaLoader = gojsonschema.NewStringLoader(chatHistorySchema)

// HistorySnapshot is the persisted form of the chat history.
type HistorySnapshot struct {
	Chats        []Chat
	ActiveChatID string
}

// encodeSnapshot renders the two stored values. An empty active id encodes as "".
func encodeSnapshot(snapshot HistorySnapshot) (chats string, activeChatID string, err error) {
	chatList := snapshot.Chats
	if chatList == nil {
		chatList = []Chat{}
	}
	chatsJSON, err := json.Marshal(chatList)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal chats: %w", err)
	}
	if snapshot.ActiveChatID == "" {
		return string(chatsJSON), "", nil
	}
	activeJSON, err := json.Marshal(snapshot.ActiveChatID)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal active chat id: %w", err)
	}
	return string(chatsJSON), string(activeJSON), nil
}

// decodeChats validates and parses the stored chat list.
func decodeChats(raw string) ([]Chat, error) {
	result, err := gojsonschema.Validate(chatHistorySchemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedSnapshot, strings.Join(problems, "; "))
	}

	var chats []Chat
	if err := json.Unmarshal([]byte(raw), &chats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	for i := range chats {
		if chats[i].Suggestions == nil {
			chats[i].Suggestions = []string{}
		}
	}
	return chats, nil
}

// decodeActiveChatID parses the stored active identifier, a JSON string.
func decodeActiveChatID(raw string) (string, error) {
	var id string
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return "", fmt.Errorf("%w: active chat id: %v", ErrMalformedSnapshot, err)
	}
	return id, nil
}

// LoadSnapshot reads the history from store. It returns nil without error when nothing was stored.
// The returned active id always refers to one of the returned chats, or is empty when there are none.
func LoadSnapshot(ctx context.Context, store KeyValueStore) (*HistorySnapshot, error) {
	rawChats, found, err := store.Get(ctx, ChatHistoryKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ChatHistoryKey, err)
	}
	if !found {
		return nil, nil
	}

	chats, err := decodeChats(rawChats)
	if err != nil {
		return nil, err
	}

	snapshot := &HistorySnapshot{Chats: chats}

	rawActive, found, err := store.Get(ctx, ActiveChatIDKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ActiveChatIDKey, err)
	}
	if found {
		// An unreadable active id is treated like a missing one.
		if id, err := decodeActiveChatID(rawActive); err == nil {
			snapshot.ActiveChatID = id
		}
	}

	if indexOfChat(chats, snapshot.ActiveChatID) < 0 {
		snapshot.ActiveChatID = ""
		if len(chats) > 0 {
			snapshot.ActiveChatID = chats[0].ID
		}
	}

	return snapshot, nil
}

// SaveSnapshot writes both keys. The active id key is removed when no chat is active.
func SaveSnapshot(ctx context.Context, store KeyValueStore, snapshot HistorySnapshot) error {
	chatsJSON, activeJSON, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	if err := store.Set(ctx, ChatHistoryKey, chatsJSON); err != nil {
		return err
	}
	if activeJSON == "" {
		return store.Remove(ctx, ActiveChatIDKey)
	}
	return store.Set(ctx, ActiveChatIDKey, activeJSON)
}

func indexOfChat(chats []Chat, id string) int {
	if id == "" {
		return -1
	}
	for i := range chats {
		if chats[i].ID == id {
			return i
		}
	}
	return -1
}
