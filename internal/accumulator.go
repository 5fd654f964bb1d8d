package internal

import (
	"strings"

	"github.com/huythanhnguyen/mm-search-bot/internal/metrics"
)

// TurnAccumulator folds the events of one assistant turn into the target
// message. It owns the streamed text buffer and current agent for that turn
// only; create a new one per turn.
type TurnAccumulator struct {
	messages  *MessageList
	timeline  *TimelineIndex
	usage     *TokenUsage
	messageID string

	buffer strings.Builder
	agent  string
}

// NewTurnAccumulator binds an accumulator to the message with messageID
func NewTurnAccumulator(messages *MessageList, timeline *TimelineIndex, messageID string) *TurnAccumulator {
	return &TurnAccumulator{
		messages:  messages,
		timeline:  timeline,
		messageID: messageID,
	}
}

// WithTokenUsage makes ApplyRaw record reported token totals on usage
func (a *TurnAccumulator) WithTokenUsage(usage *TokenUsage) *TurnAccumulator {
	a.usage = usage
	return a
}

// MessageID returns the id of the message being built
func (a *TurnAccumulator) MessageID() string {
	return a.messageID
}

// Text returns the streamed text accumulated so far
func (a *TurnAccumulator) Text() string {
	return a.buffer.String()
}

// Agent returns the last agent that authored an event in this turn
func (a *TurnAccumulator) Agent() string {
	return a.agent
}

// ApplyRaw extracts a raw frame and applies it
func (a *TurnAccumulator) ApplyRaw(raw []byte) {
	a.Apply(ExtractEventWithUsage(raw, a.usage))
}

// Apply folds one extracted event into the target message. Effects run in a
// fixed order and each sees the state left by the previous one.
func (a *TurnAccumulator) Apply(ev ExtractedEventData) {
	metrics.EventsApplied.Inc()

	if ev.Agent != "" && ev.Agent != a.agent {
		LogDebug("Agent switched to %s", ev.Agent)
		a.agent = ev.Agent
	}

	if ev.FunctionCall != nil {
		a.timeline.Append(a.messageID, FunctionCallEntry(ev.FunctionCall))
	}

	if ev.FunctionResponse != nil {
		a.timeline.Append(a.messageID, FunctionResponseEntry(ev.FunctionResponse))
		if payload, ok := productFromFunctionResponse(ev.FunctionResponse); ok {
			a.messages.Update(a.messageID, func(m *Message) {
				m.ProductData = payload
				m.FinalReportWithCitations = true
			})
		}
	}

	if len(ev.TextParts) > 0 {
		newText := strings.Join(ev.TextParts, " ")
		if strings.TrimSpace(newText) != "" {
			a.buffer.WriteString(newText)
			content := a.buffer.String()
			a.messages.Update(a.messageID, func(m *Message) {
				m.Content = content
				if ev.Agent != "" {
					m.Agent = ev.Agent
				}
			})
		}
	}

	if ev.CoordinatorResponse != nil {
		content := *ev.CoordinatorResponse
		a.finalize(content, ev.Agent)
	}

	if ev.FinalReport != nil {
		report := *ev.FinalReport
		content := report
		if !containsProductJSON(report) && strings.TrimSpace(a.buffer.String()) != "" {
			content = a.buffer.String() + "\n\n" + report
		}
		a.finalize(content, ev.Agent)
	}

	if ev.SourceCount != nil && *ev.SourceCount > 0 {
		a.timeline.Append(a.messageID, SourcesEntry(*ev.SourceCount))
	}
}

// finalize replaces the message content with an authoritative answer and
// re-derives its product payload.
func (a *TurnAccumulator) finalize(content, agent string) {
	payload := ExtractProductData(content)
	a.messages.Update(a.messageID, func(m *Message) {
		m.Content = content
		m.FinalReportWithCitations = true
		if agent != "" {
			m.Agent = agent
		}
		m.ProductData = payload
	})
}

func containsProductJSON(s string) bool {
	return strings.Contains(s, `"type"`) &&
		strings.Contains(s, `"product-display"`) &&
		strings.Contains(s, `"products"`)
}

// productFromFunctionResponse decodes response.result when it holds a
// product-display object.
func productFromFunctionResponse(fr *FunctionResponse) (*ProductDisplayPayload, bool) {
	result, ok := fr.Result()
	if !ok {
		return nil, false
	}
	result = strings.TrimSpace(result)
	if !strings.HasPrefix(result, "{") || !strings.HasSuffix(result, "}") {
		return nil, false
	}
	payload, ok := DecodeProductDisplay([]byte(result))
	if !ok {
		LogWarn("Function response %s result is not a product payload", fr.Name)
		return nil, false
	}
	return payload, true
}

// TurnResult is the outcome of folding a non-streaming response
type TurnResult struct {
	Text        string
	ProductData *ProductDisplayPayload
	Agent       string
}

// Message turns the result into an assistant message
func (r TurnResult) Message(id string) Message {
	return Message{
		Role:                     RoleAI,
		Content:                  r.Text,
		ID:                       id,
		Agent:                    r.Agent,
		ProductData:              r.ProductData,
		FinalReportWithCitations: r.ProductData != nil,
	}
}

// FoldNonStreaming reduces a complete /run response body. For an event array
// the last product-display tool result and the last text part win; any other
// body is used verbatim as the answer text.
func FoldNonStreaming(body []byte, usage *TokenUsage) TurnResult {
	frames, mode := ReadFrames(body)
	if mode != FrameModeArray {
		if mode == FrameModeText {
			LogWarn("Non-streaming response is not a JSON event array")
		}
		return TurnResult{Text: string(body)}
	}

	var result TurnResult
	for _, frame := range frames {
		ev := ExtractEventWithUsage(frame, usage)
		if ev.Agent != "" {
			result.Agent = ev.Agent
		}
		if ev.FunctionResponse != nil {
			if payload, ok := productFromFunctionResponse(ev.FunctionResponse); ok {
				result.ProductData = payload
			}
		}
		if n := len(ev.TextParts); n > 0 {
			result.Text = ev.TextParts[n-1]
		}
	}
	if result.Text == "" {
		result.Text = string(body)
	}
	return result
}
