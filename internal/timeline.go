package internal

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Timeline entry kinds
const (
	TimelineFunctionCall     = "functionCall"
	TimelineFunctionResponse = "functionResponse"
	TimelineSources          = "sources"
)

// TimelineData is the payload of a timeline entry
type TimelineData struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	ID       string          `json:"id,omitempty"`
	Count    int             `json:"count,omitempty"`
}

// TimelineEntry is a progress notice shown alongside an assistant message
type TimelineEntry struct {
	Title string       `json:"title"`
	Data  TimelineData `json:"data"`
}

// FunctionCallEntry builds the entry for a tool invocation
func FunctionCallEntry(fc *FunctionCall) TimelineEntry {
	return TimelineEntry{
		Title: "Function Call: " + fc.Name,
		Data:  TimelineData{Type: TimelineFunctionCall, Name: fc.Name, Args: fc.Args, ID: fc.ID},
	}
}

// FunctionResponseEntry builds the entry for a tool result
func FunctionResponseEntry(fr *FunctionResponse) TimelineEntry {
	return TimelineEntry{
		Title: "Function Response: " + fr.Name,
		Data:  TimelineData{Type: TimelineFunctionResponse, Name: fr.Name, Response: fr.Response, ID: fr.ID},
	}
}

// SourcesEntry builds the entry announcing how many sources were consulted
func SourcesEntry(count int) TimelineEntry {
	return TimelineEntry{
		Title: fmt.Sprintf("📚 Tìm thấy %d nguồn thông tin", count),
		Data:  TimelineData{Type: TimelineSources, Count: count},
	}
}

// TimelineIndex provides thread-safe access to per-message timelines
type TimelineIndex struct {
	mu      sync.RWMutex
	entries map[string][]TimelineEntry
}

// NewTimelineIndex creates a new TimelineIndex
func NewTimelineIndex() *TimelineIndex {
	return &TimelineIndex{
		entries: make(map[string][]TimelineEntry),
	}
}

// Append adds an entry to the end of a message's timeline
func (ti *TimelineIndex) Append(messageID string, entry TimelineEntry) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.entries[messageID] = append(ti.entries[messageID], entry)
}

// Get returns a copy of a message's timeline
func (ti *TimelineIndex) Get(messageID string) []TimelineEntry {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	entries := ti.entries[messageID]
	if len(entries) == 0 {
		return nil
	}
	out := make([]TimelineEntry, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of messages with a timeline
func (ti *TimelineIndex) Len() int {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return len(ti.entries)
}

// Forget drops the timeline of a message that is no longer displayed
func (ti *TimelineIndex) Forget(messageID string) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	delete(ti.entries, messageID)
}

// Reset clears every timeline
func (ti *TimelineIndex) Reset() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.entries = make(map[string][]TimelineEntry)
}
