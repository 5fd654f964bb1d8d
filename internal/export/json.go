package export

import (
	"encoding/json"
	"io"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

// JSONExporter writes the stored session record, pretty-printed
type JSONExporter struct{}

func (e *JSONExporter) Export(session *internal.ChatSession, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(session)
}

func (e *JSONExporter) Extension() string {
	return "json"
}
