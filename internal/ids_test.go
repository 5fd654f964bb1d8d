package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewMessageID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewSessionID(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	a := NewSessionID(now)
	b := NewSessionID(now)

	assert.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "session_"))
	parsed, err := ulid.Parse(strings.TrimPrefix(a, "session_"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000000), parsed.Time())
}
