package internal

import (
	"strings"

	"github.com/huythanhnguyen/mm-search-bot/internal/metrics"
)

// ParseMessage splits an assistant message into display text and an optional
// product payload. Detectors run in priority order and the first candidate
// that decodes into a product-display object wins. It never fails; anything
// unrecognized is returned as cleaned plain text.
func ParseMessage(content string) ParsedMessage {
	return parseWith(Extractors(), content)
}

func parseWith(extractors []JSONExtractor, content string) ParsedMessage {
	for _, ex := range extractors {
		cand, ok := ex.Extract(content)
		if !ok {
			continue
		}
		payload, ok := decodeCandidate(cand.Text)
		if !ok {
			LogDebug("Detector %s matched a span that is not a product payload", ex.Name())
			continue
		}

		metrics.ParserDetections.WithLabelValues(ex.Name()).Inc()
		LogDebug("Detector %s found product payload with %d products", ex.Name(), len(payload.Products))
		return ParsedMessage{
			Kind:        MessageKindProductDisplay,
			Text:        cleanProductText(content, cand, payload),
			ProductData: payload,
			Strategy:    ex.Name(),
		}
	}

	metrics.ParserDetections.WithLabelValues(string(MessageKindText)).Inc()
	return ParsedMessage{
		Kind: MessageKindText,
		Text: cleanPlainText(content),
	}
}

// ExtractProductData returns the embedded product payload, or nil
func ExtractProductData(content string) *ProductDisplayPayload {
	parsed := ParseMessage(content)
	if parsed.Kind != MessageKindProductDisplay {
		return nil
	}
	return parsed.ProductData
}

// decodeCandidate decodes a span as-is and, failing that, after undoing the
// escaping left behind when the payload was itself a JSON string value.
func decodeCandidate(span string) (*ProductDisplayPayload, bool) {
	if payload, ok := DecodeProductDisplay([]byte(span)); ok {
		return payload, true
	}
	unescaped := unescapeEmbedded(span)
	if unescaped == span {
		return nil, false
	}
	return DecodeProductDisplay([]byte(unescaped))
}

// unescapeEmbedded replaces \n, \" and \\ in that order.
func unescapeEmbedded(s string) string {
	if strings.Contains(s, `\n`) {
		s = strings.ReplaceAll(s, `\n`, "\n")
	}
	if strings.Contains(s, `\"`) {
		s = strings.ReplaceAll(s, `\"`, `"`)
	}
	if strings.Contains(s, `\\`) {
		s = strings.ReplaceAll(s, `\\`, `\`)
	}
	return s
}
