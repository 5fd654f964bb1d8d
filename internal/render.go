package internal

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	humanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	timelineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	thinkingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	priceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	strikeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Strikethrough(true)
)

var viPrinter = message.NewPrinter(language.Vietnamese)

// FormatPrice renders an amount the way vi-VN formats currency, e.g. "55.000 ₫"
func FormatPrice(amount float64) string {
	return viPrinter.Sprintf("%d", int64(math.Round(amount))) + " ₫"
}

// FormatCount renders n with vi-VN digit grouping
func FormatCount(n int64) string {
	return viPrinter.Sprintf("%d", n)
}

// DiscountPercent is the rounded saving relative to the original price
func DiscountPercent(p ProductPrice) int {
	if p.Original <= 0 {
		return 0
	}
	return int(math.Round((p.Original - p.Current) / p.Original * 100))
}

// AgentLabel turns "sales_agent" into "Sales Agent"
func AgentLabel(agent string) string {
	label := strings.Replace(agent, "_", " ", 1)
	words := strings.Fields(label)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// TokenWarning is shown once a conversation passes the token threshold
func TokenWarning(total int64) string {
	return fmt.Sprintf("Đoạn chat đã quá dài. Tổng số token hiện tại là %s. Vui lòng bắt đầu đoạn chat mới để tiếp tục.", FormatCount(total))
}

// RenderMessage writes a message with its timeline and any product grid
func RenderMessage(w io.Writer, m Message, timeline []TimelineEntry) {
	if m.Role == RoleHuman {
		fmt.Fprintf(w, "%s %s\n", humanStyle.Render("Bạn:"), m.Content)
		return
	}

	header := "Trợ lý:"
	if m.Agent != "" {
		header = fmt.Sprintf("Trợ lý [%s]:", AgentLabel(m.Agent))
	}
	fmt.Fprintln(w, agentStyle.Render(header))

	for _, entry := range timeline {
		fmt.Fprintf(w, "  %s\n", timelineStyle.Render("· "+entry.Title))
	}

	parsed := ParseMessage(m.Content)
	if banner := thinkingBanner(m.Content); banner != "" {
		fmt.Fprintf(w, "  %s\n", thinkingStyle.Render(banner))
	}
	if text := strings.TrimSpace(parsed.Text); text != "" && !containsAny(text, bannerMarkers) {
		fmt.Fprintln(w, text)
	}

	payload := m.ProductData
	if payload == nil {
		payload = parsed.ProductData
	}
	if payload != nil {
		RenderProducts(w, payload)
	}
}

// RenderProducts writes the renderable cards of payload followed by the
// count line
func RenderProducts(w io.Writer, payload *ProductDisplayPayload) {
	if payload.Message != "" {
		fmt.Fprintln(w, timelineStyle.Render(payload.Message))
	}
	v := ValidateProducts(payload.Products)
	for i, card := range v.Valid {
		line := fmt.Sprintf("%d. %s", i+1, card.Name)
		if card.SKU != "" {
			line += fmt.Sprintf(" (%s)", card.SKU)
		}
		line += "  " + priceStyle.Render(FormatPrice(card.Price.Current))
		if card.Price.Original > card.Price.Current {
			line += " " + strikeStyle.Render(FormatPrice(card.Price.Original))
			line += fmt.Sprintf(" -%d%%", DiscountPercent(card.Price))
		}
		if card.Unit != "" {
			line += " / " + card.Unit
		}
		fmt.Fprintln(w, line)
		if card.ProductURL != "" {
			fmt.Fprintf(w, "   %s\n", timelineStyle.Render(card.ProductURL))
		}
	}
	fmt.Fprintln(w, timelineStyle.Render(v.Summary()))
}

// thinkingBanner returns the first progress banner in content, if any
func thinkingBanner(content string) string {
	if !hasAnalysisMarker(content) {
		return ""
	}
	for _, re := range firstBannerRes {
		if banner := re.FindString(content); banner != "" {
			return strings.TrimSpace(banner)
		}
	}
	return ""
}
