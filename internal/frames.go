package internal

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// FrameMode describes how a response body was split into event frames
type FrameMode int

const (
	// FrameModeText means the body held no recognizable events
	FrameModeText FrameMode = iota
	// FrameModeArray is a non-streaming JSON array of events
	FrameModeArray
	// FrameModeObject is a single JSON object
	FrameModeObject
	// FrameModeSSE is a stream of "data:" lines
	FrameModeSSE
)

func (m FrameMode) String() string {
	switch m {
	case FrameModeArray:
		return "array"
	case FrameModeObject:
		return "object"
	case FrameModeSSE:
		return "sse"
	default:
		return "text"
	}
}

const maxFrameSize = 8 * 1024 * 1024

// ReadFrames splits a response body into raw event frames.
func ReadFrames(body []byte) ([][]byte, FrameMode) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, FrameModeText
	}

	if gjson.ValidBytes(trimmed) {
		root := gjson.ParseBytes(trimmed)
		switch {
		case root.IsArray():
			var frames [][]byte
			root.ForEach(func(_, value gjson.Result) bool {
				frames = append(frames, []byte(value.Raw))
				return true
			})
			return frames, FrameModeArray
		case root.IsObject():
			return [][]byte{trimmed}, FrameModeObject
		}
		return nil, FrameModeText
	}

	reader := NewSSEReader(bytes.NewReader(body))
	var frames [][]byte
	for {
		frame, err := reader.Next()
		if err != nil {
			if err != io.EOF {
				LogWarn("Stopped reading SSE frames: %v", err)
			}
			break
		}
		frames = append(frames, frame)
	}
	if len(frames) == 0 {
		return nil, FrameModeText
	}
	return frames, FrameModeSSE
}

// SSEReader yields the data payload of each server-sent event. Multi-line
// data fields are joined with newlines; the [DONE] sentinel is skipped.
type SSEReader struct {
	scanner *bufio.Scanner
}

// NewSSEReader wraps r
func NewSSEReader(r io.Reader) *SSEReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFrameSize)
	return &SSEReader{scanner: scanner}
}

// Next returns the next event payload, or io.EOF when the stream ends.
func (s *SSEReader) Next() ([]byte, error) {
	var data []string
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")

		if line == "" {
			if payload, ok := joinData(data); ok {
				return payload, nil
			}
			data = data[:0]
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	if payload, ok := joinData(data); ok {
		return payload, nil
	}
	return nil, io.EOF
}

func joinData(lines []string) ([]byte, bool) {
	if len(lines) == 0 {
		return nil, false
	}
	payload := strings.TrimSpace(strings.Join(lines, "\n"))
	if payload == "" || payload == "[DONE]" {
		return nil, false
	}
	return []byte(payload), true
}
