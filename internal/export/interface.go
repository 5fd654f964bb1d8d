package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

// Exporter writes one chat session in a single format
type Exporter interface {
	Export(session *internal.ChatSession, w io.Writer) error
	Extension() string
}

// formats lists the export formats in the order they are advertised.
// Aliases map onto the same exporter.
var formats = []struct {
	names []string
	new   func() Exporter
}{
	{[]string{"jsonl"}, func() Exporter { return &JSONLExporter{} }},
	{[]string{"md", "markdown"}, func() Exporter { return &MarkdownExporter{} }},
	{[]string{"yaml", "yml"}, func() Exporter { return &YAMLExporter{} }},
	{[]string{"json"}, func() Exporter { return &JSONExporter{} }},
}

// SupportedFormats returns the primary name of every export format
func SupportedFormats() []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.names[0])
	}
	return names
}

// NewExporter returns the exporter for format. Names are case-insensitive.
func NewExporter(format string) (Exporter, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	for _, f := range formats {
		for _, name := range f.names {
			if name == format {
				return f.new(), nil
			}
		}
	}
	return nil, fmt.Errorf("unsupported format: %q (supported: %s)", format, strings.Join(SupportedFormats(), ", "))
}
