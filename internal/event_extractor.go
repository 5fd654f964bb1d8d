package internal

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/huythanhnguyen/mm-search-bot/internal/metrics"
)

// stateDelta keys whose array lengths are summed into the source count
var sourceKeys = []string{"sources", "search_results", "knowledge_sources"}

// usage objects, first truthy wins
var usagePaths = []string{"usageMetadata", "usage", "metadata.usage"}

// ExtractEvent normalizes one raw backend event. It never fails: malformed
// input yields an empty result and a log line.
func ExtractEvent(raw []byte) ExtractedEventData {
	return extractEvent(raw, nil)
}

// ExtractEventString is ExtractEvent for string frames.
func ExtractEventString(raw string) ExtractedEventData {
	return extractEvent([]byte(raw), nil)
}

// ExtractEventWithUsage extracts an event and records any numeric token total
// on usage.
func ExtractEventWithUsage(raw []byte, usage *TokenUsage) ExtractedEventData {
	return extractEvent(raw, usage)
}

func extractEvent(raw []byte, usage *TokenUsage) ExtractedEventData {
	var data ExtractedEventData

	if !gjson.ValidBytes(raw) {
		metrics.ExtractionFailures.Inc()
		LogWarn("Failed to parse event frame (%d bytes): invalid JSON", len(raw))
		return data
	}
	event := gjson.ParseBytes(raw)

	if total, ok := totalTokenCount(event); ok {
		data.TotalTokens = &total
		if usage != nil {
			usage.Record(total)
		}
	}

	if parts := event.Get("content.parts"); parts.IsArray() {
		for _, part := range parts.Array() {
			if text := part.Get("text"); truthy(text) {
				data.TextParts = append(data.TextParts, text.String())
			}
			if fc := part.Get("functionCall"); data.FunctionCall == nil && truthy(fc) {
				data.FunctionCall = &FunctionCall{
					Name: fc.Get("name").String(),
					Args: rawOrNil(fc.Get("args")),
					ID:   fc.Get("id").String(),
				}
			}
			if fr := part.Get("functionResponse"); data.FunctionResponse == nil && truthy(fr) {
				data.FunctionResponse = &FunctionResponse{
					Name:     fr.Get("name").String(),
					Response: rawOrNil(fr.Get("response")),
					ID:       fr.Get("id").String(),
				}
			}
		}
	}

	if author := event.Get("author"); truthy(author) {
		data.Agent = author.String()
	}

	stateDelta := event.Get("actions.stateDelta")
	if report := stateDelta.Get("final_report_with_citations"); report.Type == gjson.String && report.Str != "" {
		s := report.Str
		data.FinalReport = &s
	}
	if coord := stateDelta.Get("last_coordinator_response"); coord.Type == gjson.String && coord.Str != "" {
		s := coord.Str
		data.CoordinatorResponse = &s
	}

	count := 0
	for _, key := range sourceKeys {
		if arr := stateDelta.Get(key); arr.IsArray() {
			count += len(arr.Array())
		}
	}
	if count > 0 {
		data.SourceCount = &count
	}

	metrics.EventsExtracted.Inc()
	return data
}

// totalTokenCount walks the usage fallback chain: the first usage object, then
// the first prompt/token detail entry's totalTokenCount, then the usage
// object's own totalTokenCount. Only numbers count.
func totalTokenCount(event gjson.Result) (int64, bool) {
	var usage gjson.Result
	for _, path := range usagePaths {
		if r := event.Get(path); truthy(r) {
			usage = r
			break
		}
	}
	if !usage.Exists() {
		return 0, false
	}

	details := usage.Get("promptTokensDetails")
	if !truthy(details) {
		details = usage.Get("tokenDetails")
	}

	total := gjson.Result{}
	if details.IsArray() {
		if items := details.Array(); len(items) > 0 {
			total = items[0].Get("totalTokenCount")
		}
	}
	if !total.Exists() || total.Type == gjson.Null {
		total = usage.Get("totalTokenCount")
	}
	if total.Type != gjson.Number {
		return 0, false
	}
	return total.Int(), true
}

// truthy follows JavaScript truthiness for decoded JSON values.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}

func rawOrNil(r gjson.Result) json.RawMessage {
	if !r.Exists() {
		return nil
	}
	return json.RawMessage(r.Raw)
}
