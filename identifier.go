package kamba

import "github.com/google/uuid"

// IDGenerator issues identifiers for chats and messages.
type IDGenerator func() string

// NewID returns a random version 4 UUID. Uniqueness is probabilistic; no collision check is made.
func NewID() string {
	return uuid.NewString()
}
