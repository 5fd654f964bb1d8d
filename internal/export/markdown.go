package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(session *internal.ChatSession, w io.Writer) error {
	name := session.Name
	if name == "" {
		name = internal.DefaultSessionName
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", escapeMarkdown(name))

	_, _ = fmt.Fprintf(w, "**ID:** %s  \n", session.ID)
	if session.CreatedAt > 0 {
		_, _ = fmt.Fprintf(w, "**Tạo lúc:** %s  \n", formatMillis(session.CreatedAt))
	}
	if session.UpdatedAt > 0 {
		_, _ = fmt.Fprintf(w, "**Cập nhật:** %s  \n", formatMillis(session.UpdatedAt))
	}
	if session.Category != "" {
		_, _ = fmt.Fprintf(w, "**Danh mục:** %s  \n", session.Category)
	}
	if len(session.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "**Thẻ:** %s  \n", strings.Join(session.Tags, ", "))
	}
	_, _ = fmt.Fprintf(w, "**Tin nhắn:** %d\n\n", len(session.Messages))

	if session.Summary != "" {
		_, _ = fmt.Fprintf(w, "> %s\n\n", session.Summary)
	}

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range session.Messages {
		writeMessage(w, msg)
		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func writeMessage(w io.Writer, msg internal.Message) {
	speaker := "Bạn"
	if msg.Role == internal.RoleAI {
		speaker = "Trợ lý"
		if msg.Agent != "" {
			speaker += " (" + internal.AgentLabel(msg.Agent) + ")"
		}
	}
	timestamp := ""
	if msg.Timestamp > 0 {
		timestamp = fmt.Sprintf(" (%s)", formatMillis(msg.Timestamp))
	}

	content := msg.Content
	payload := msg.ProductData
	if msg.Role == internal.RoleAI {
		parsed := internal.ParseMessage(msg.Content)
		content = parsed.Text
		if payload == nil {
			payload = parsed.ProductData
		}
	}

	_, _ = fmt.Fprintf(w, "**%s:**%s\n\n", speaker, timestamp)
	if strings.TrimSpace(content) != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", escapeMarkdown(content))
	}
	if payload != nil {
		writeProducts(w, payload)
	}
}

func writeProducts(w io.Writer, payload *internal.ProductDisplayPayload) {
	v := internal.ValidateProducts(payload.Products)
	if len(v.Valid) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "| # | Sản phẩm | SKU | Giá |\n|---|---|---|---|\n")
	for i, card := range v.Valid {
		name := strings.ReplaceAll(card.Name, "|", "\\|")
		if card.ProductURL != "" {
			name = fmt.Sprintf("[%s](%s)", name, card.ProductURL)
		}
		_, _ = fmt.Fprintf(w, "| %d | %s | %s | %s |\n", i+1, name, card.SKU, internal.FormatPrice(card.Price.Current))
	}
	_, _ = fmt.Fprintf(w, "\n")
	if v.Dropped > 0 {
		_, _ = fmt.Fprintf(w, "_%s_\n\n", v.Summary())
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("02/01/2006 15:04")
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
