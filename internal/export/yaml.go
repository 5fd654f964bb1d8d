package export

import (
	"io"

	"github.com/huythanhnguyen/mm-search-bot/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports sessions in YAML format
type YAMLExporter struct{}

func (e *YAMLExporter) Export(session *internal.ChatSession, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(session)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
