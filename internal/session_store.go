package internal

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/huythanhnguyen/mm-search-bot/internal/metrics"
)

// SessionsStorageKey is the localStorage key holding every saved session
const SessionsStorageKey = "chatSessions"

// SessionStore persists the session list as one JSON array in local storage
type SessionStore struct {
	storage *LocalStorage
}

// NewSessionStore creates a store over storage
func NewSessionStore(storage *LocalStorage) *SessionStore {
	return &SessionStore{storage: storage}
}

// Load returns all saved sessions. A missing key yields an empty list.
func (s *SessionStore) Load() ([]ChatSession, error) {
	raw, ok, err := s.storage.GetItem(SessionsStorageKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []ChatSession{}, nil
	}
	var sessions []ChatSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, &ParseError{Source: "localStorage", Key: SessionsStorageKey, Err: err}
	}
	return sessions, nil
}

// Save replaces the stored list
func (s *SessionStore) Save(sessions []ChatSession) error {
	if sessions == nil {
		sessions = []ChatSession{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return errors.Wrap(err, "encode sessions")
	}
	return s.storage.SetItem(SessionsStorageKey, string(data))
}

// Get returns the session with id, or ErrSessionNotStored
func (s *SessionStore) Get(id string) (*ChatSession, error) {
	sessions, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i], nil
		}
	}
	return nil, errors.Wrapf(ErrSessionNotStored, "id %s", id)
}

// Upsert replaces the session with the same id in place, or puts a new one
// at the front of the list.
func (s *SessionStore) Upsert(session ChatSession) error {
	sessions, err := s.Load()
	if err != nil {
		LogWarn("Discarding unreadable session list: %v", err)
		sessions = nil
	}
	replaced := false
	for i := range sessions {
		if sessions[i].ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append([]ChatSession{session}, sessions...)
	}
	if err := s.Save(sessions); err != nil {
		return err
	}
	metrics.SessionsSaved.Inc()
	return nil
}

// Rename sets a session's name
func (s *SessionStore) Rename(id, name string, now time.Time) error {
	return s.update(id, now, func(cs *ChatSession) { cs.Name = name })
}

// ToggleArchive flips a session's archived flag and returns the new value
func (s *SessionStore) ToggleArchive(id string, now time.Time) (bool, error) {
	var archived bool
	err := s.update(id, now, func(cs *ChatSession) {
		cs.IsArchived = !cs.IsArchived
		archived = cs.IsArchived
	})
	return archived, err
}

// Delete removes a session
func (s *SessionStore) Delete(id string) error {
	sessions, err := s.Load()
	if err != nil {
		return err
	}
	kept := sessions[:0]
	found := false
	for _, cs := range sessions {
		if cs.ID == id {
			found = true
			continue
		}
		kept = append(kept, cs)
	}
	if !found {
		return errors.Wrapf(ErrSessionNotStored, "id %s", id)
	}
	return s.Save(kept)
}

// Clear removes every saved session
func (s *SessionStore) Clear() error {
	return s.storage.RemoveItem(SessionsStorageKey)
}

func (s *SessionStore) update(id string, now time.Time, fn func(*ChatSession)) error {
	sessions, err := s.Load()
	if err != nil {
		return err
	}
	for i := range sessions {
		if sessions[i].ID != id {
			continue
		}
		fn(&sessions[i])
		sessions[i].UpdatedAt = now.UnixMilli()
		return s.Save(sessions)
	}
	return errors.Wrapf(ErrSessionNotStored, "id %s", id)
}
