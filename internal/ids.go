package internal

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewMessageID returns a random, collision-free message id.
func NewMessageID() string {
	return uuid.NewString()
}

// NewSessionID mints a sortable local session id. Ids minted at the same
// millisecond still differ in their random suffix.
func NewSessionID(now time.Time) string {
	return "session_" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
