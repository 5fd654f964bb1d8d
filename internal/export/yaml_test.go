package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/huythanhnguyen/mm-search-bot/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		session *internal.ChatSession
	}{
		{
			name:    "basic session",
			session: internal.CreateTestSession("test1"),
		},
		{
			name:    "empty session",
			session: internal.CreateTestSessionWithMessages("test2", []internal.Message{}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &YAMLExporter{}

			if err := exporter.Export(tt.session, &buf); err != nil {
				t.Fatalf("YAMLExporter.Export() error = %v", err)
			}

			var decoded internal.ChatSession
			if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("Output is not valid YAML: %v\nOutput: %s", err, buf.String())
			}
			if decoded.ID != tt.session.ID {
				t.Errorf("decoded ID = %q, want %q", decoded.ID, tt.session.ID)
			}
			if decoded.MessageCount != tt.session.MessageCount {
				t.Errorf("decoded messageCount = %d, want %d", decoded.MessageCount, tt.session.MessageCount)
			}
		})
	}
}

func TestYAMLExporter_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(internal.CreateTestSession("test1"), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	output := buf.String()
	for _, want := range []string{"id: test1", "messageCount: 2", "type: human", "productData:", "sku: SKU-1"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output should contain %q\nOutput: %s", want, output)
		}
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	exporter := &YAMLExporter{}
	if got := exporter.Extension(); got != "yaml" {
		t.Errorf("YAMLExporter.Extension() = %v, want yaml", got)
	}
}
