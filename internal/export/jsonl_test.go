package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/huythanhnguyen/mm-search-bot/internal"
	"github.com/huythanhnguyen/mm-search-bot/testutil"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name  string
		input *internal.ChatSession
		want  []string
	}{
		{
			name:  "empty session",
			input: internal.CreateTestSessionWithMessages("test1", []internal.Message{}),
			want:  []string{},
		},
		{
			name:  "session with messages",
			input: internal.CreateTestSession("test2"),
			want: []string{
				`"session":"test2","id":"m1","role":"human"`,
				`"role":"ai","agent":"sales_agent"`,
				`"timestamp":"2023-11-14T22:13:20Z"`,
				`"products":["SKU-1","SKU-2"]`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			if err := exporter.Export(tt.input, &buf); err != nil {
				t.Fatalf("JSONLExporter.Export() error = %v", err)
			}

			output := buf.String()
			lines := strings.Split(strings.TrimSpace(output), "\n")
			if len(tt.input.Messages) == 0 {
				if output != "" {
					t.Errorf("Expected empty output, got %q", output)
				}
				return
			}
			if len(lines) != len(tt.input.Messages) {
				t.Fatalf("Expected %d lines, got %d", len(tt.input.Messages), len(lines))
			}
			for i, line := range lines {
				var obj map[string]interface{}
				if err := json.Unmarshal([]byte(line), &obj); err != nil {
					t.Errorf("Line %d is not valid JSON: %v", i+1, err)
				}
			}
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("Output should contain %q\nOutput: %s", want, output)
				}
			}
		})
	}
}

func TestJSONLExporter_EmbeddedProducts(t *testing.T) {
	content := "Đây là gợi ý:\n```json\n" + testutil.ProductPayloadJSON("Gợi ý", 3) + "\n```"
	session := internal.CreateTestSessionWithMessages("embedded", []internal.Message{
		{Role: internal.RoleAI, ID: "a1", Content: content},
	})

	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(session, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var line jsonlLine
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if strings.Contains(line.Content, "product-display") {
		t.Errorf("raw payload should be stripped from content, got %q", line.Content)
	}
	if !strings.Contains(line.Content, "Đây là gợi ý") {
		t.Errorf("lead-in text missing from %q", line.Content)
	}
	if len(line.Products) != 3 {
		t.Errorf("got %d products, want 3", len(line.Products))
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
