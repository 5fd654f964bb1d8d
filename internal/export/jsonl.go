package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

// jsonlLine is one message of a JSONL export
type jsonlLine struct {
	Session   string   `json:"session"`
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Agent     string   `json:"agent,omitempty"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp,omitempty"`
	Products  []string `json:"products,omitempty"`
}

// JSONLExporter exports sessions in JSONL format (one message per line).
// Product-display answers are flattened to their message text plus the
// SKUs shown.
type JSONLExporter struct{}

func (e *JSONLExporter) Export(session *internal.ChatSession, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, msg := range session.Messages {
		line := jsonlLine{
			Session: session.ID,
			ID:      msg.ID,
			Role:    string(msg.Role),
			Agent:   msg.Agent,
			Content: msg.Content,
		}
		if msg.Timestamp > 0 {
			line.Timestamp = time.UnixMilli(msg.Timestamp).UTC().Format(time.RFC3339)
		}

		payload := msg.ProductData
		if payload == nil && msg.Role == internal.RoleAI {
			parsed := internal.ParseMessage(msg.Content)
			if parsed.Kind == internal.MessageKindProductDisplay {
				payload = parsed.ProductData
				line.Content = parsed.Text
			}
		}
		if payload != nil {
			for _, card := range payload.Products {
				line.Products = append(line.Products, card.SKU)
			}
		}

		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
