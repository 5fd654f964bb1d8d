package internal

import "sync"

// MessageListObserver is notified with a snapshot after every change
type MessageListObserver func(messages []Message)

// MessageList is the live, ordered conversation. Mutations are serialized;
// observers run synchronously after each one, in registration order.
type MessageList struct {
	mu        sync.RWMutex
	messages  []Message
	observers []MessageListObserver
}

// NewMessageList creates a list seeded with msgs
func NewMessageList(msgs ...Message) *MessageList {
	l := &MessageList{}
	l.messages = append(l.messages, msgs...)
	return l
}

// Observe registers fn to run after each mutation
func (l *MessageList) Observe(fn MessageListObserver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Append adds a message at the end
func (l *MessageList) Append(m Message) {
	l.mu.Lock()
	l.messages = append(l.messages, m)
	l.mu.Unlock()
	l.notify()
}

// Update applies fn to the message with the given id. It reports false when
// no such message exists.
func (l *MessageList) Update(id string, fn func(m *Message)) bool {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	fn(&l.messages[idx])
	l.mu.Unlock()
	l.notify()
	return true
}

// Get returns a copy of the message with the given id
func (l *MessageList) Get(id string) (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := l.indexOf(id)
	if idx < 0 {
		return Message{}, false
	}
	return l.messages[idx], true
}

// Snapshot returns a copy of all messages
func (l *MessageList) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages
func (l *MessageList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Reset replaces the whole list, used when a stored session is loaded
func (l *MessageList) Reset(msgs []Message) {
	l.mu.Lock()
	l.messages = append([]Message(nil), msgs...)
	l.mu.Unlock()
	l.notify()
}

func (l *MessageList) indexOf(id string) int {
	for i := range l.messages {
		if l.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *MessageList) notify() {
	l.mu.RLock()
	observers := append([]MessageListObserver(nil), l.observers...)
	l.mu.RUnlock()
	if len(observers) == 0 {
		return
	}
	snapshot := l.Snapshot()
	for _, fn := range observers {
		fn(snapshot)
	}
}
