package internal

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// SessionRepository is where derived sessions are persisted
type SessionRepository interface {
	Get(id string) (*ChatSession, error)
	Upsert(session ChatSession) error
}

// SessionTracker re-derives and saves the session record each time the live
// message list grows or shrinks. Register OnMessagesChanged with
// MessageList.Observe; in-place edits are saved by Flush.
type SessionTracker struct {
	mu        sync.Mutex
	repo      SessionRepository
	sessionID string
	minted    bool
	current   *ChatSession
	lastLen   int
	summary   SummaryOptions
	now       func() time.Time
}

// NewSessionTracker creates a tracker. An empty sessionID makes the tracker
// mint a local id on the first change and name the session from its content.
func NewSessionTracker(repo SessionRepository, sessionID string) *SessionTracker {
	return &SessionTracker{
		repo:      repo,
		sessionID: sessionID,
		summary:   DefaultSummaryOptions(),
		now:       time.Now,
	}
}

// SetSummaryOptions controls how saved summaries are written
func (t *SessionTracker) SetSummaryOptions(opts SummaryOptions) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary = opts
}

// SetClock replaces the time source
func (t *SessionTracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Bind switches the tracker to another session id, e.g. after the backend
// issued a new session. The next change starts a fresh record.
func (t *SessionTracker) Bind(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = sessionID
	t.minted = false
	t.current = nil
	t.lastLen = 0
}

// Seed binds the tracker to a stored record without saving it. A message
// list reset to the same messages is then not a change.
func (t *SessionTracker) Seed(stored ChatSession) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = stored.ID
	t.minted = false
	t.current = &stored
	t.lastLen = len(stored.Messages)
}

// SessionID returns the id records are saved under
func (t *SessionTracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// Current returns a copy of the last derived record
func (t *SessionTracker) Current() (ChatSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return ChatSession{}, false
	}
	return *t.current, true
}

// OnMessagesChanged derives the session for messages and saves it when the
// message count differs from the last save. Storage failures are logged,
// never returned.
func (t *SessionTracker) OnMessagesChanged(messages []Message) {
	if len(messages) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(messages) == t.lastLen {
		return
	}
	t.save(messages)
}

// Flush derives and saves the session regardless of the message count, e.g.
// once a streamed reply is complete.
func (t *SessionTracker) Flush(messages []Message) {
	if len(messages) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.save(messages)
}

func (t *SessionTracker) save(messages []Message) {
	now := t.now()
	s := DeriveSession(messages, t.sessionID, now, t.summary)
	if t.sessionID == "" {
		t.sessionID = s.ID
		t.minted = true
	} else if t.minted {
		ApplySmartNaming(&s, messages)
	}
	t.lastLen = len(messages)

	prev := t.current
	if prev == nil && t.repo != nil {
		stored, err := t.repo.Get(s.ID)
		switch {
		case err == nil:
			prev = stored
		case !errors.Is(err, ErrSessionNotStored):
			LogWarn("Failed to load stored session %s: %v", s.ID, err)
		}
	}
	if prev != nil {
		s.CreatedAt = prev.CreatedAt
		s.IsArchived = prev.IsArchived
		if s.UpdatedAt <= prev.UpdatedAt {
			s.UpdatedAt = prev.UpdatedAt + 1
		}
	}
	t.current = &s

	if t.repo == nil {
		return
	}
	if err := t.repo.Upsert(s); err != nil {
		LogError("Failed to save session %s: %v", s.ID, err)
	}
}
