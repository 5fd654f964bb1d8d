package internal

import "sync"

// DefaultTokenWarnThreshold is the total above which a conversation is
// considered too long to continue.
const DefaultTokenWarnThreshold int64 = 2000

// TokenUsage remembers the latest total token count reported by the backend
// for the current conversation.
type TokenUsage struct {
	mu    sync.Mutex
	total int64
	set   bool
}

// NewTokenUsage creates an empty usage record
func NewTokenUsage() *TokenUsage {
	return &TokenUsage{}
}

// Record stores the latest reported total
func (u *TokenUsage) Record(total int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.total = total
	u.set = true
}

// Total returns the last recorded total, if any
func (u *TokenUsage) Total() (int64, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.total, u.set
}

// Exceeds reports whether a recorded total reached threshold
func (u *TokenUsage) Exceeds(threshold int64) bool {
	total, ok := u.Total()
	return ok && total >= threshold
}

// Reset forgets the recorded total, used when a new chat starts
func (u *TokenUsage) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.total = 0
	u.set = false
}
