package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huythanhnguyen/mm-search-bot/testutil"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "55.000 ₫", FormatPrice(55000))
	assert.Equal(t, "1.250.000 ₫", FormatPrice(1249999.6))
	assert.Equal(t, "0 ₫", FormatPrice(0))
}

func TestDiscountPercent(t *testing.T) {
	assert.Equal(t, 20, DiscountPercent(ProductPrice{Current: 80000, Original: 100000}))
	assert.Equal(t, 0, DiscountPercent(ProductPrice{Current: 80000}))
}

func TestAgentLabel(t *testing.T) {
	assert.Equal(t, "Sales Agent", AgentLabel("sales_agent"))
	assert.Equal(t, "Product Search_agent", AgentLabel("product_search_agent"))
	assert.Equal(t, "", AgentLabel(""))
}

func TestTokenWarning(t *testing.T) {
	assert.Contains(t, TokenWarning(2500), "2.500")
}

func TestRenderMessage_Human(t *testing.T) {
	var buf bytes.Buffer
	RenderMessage(&buf, Message{Role: RoleHuman, Content: "Giá táo?"}, nil)
	assert.Contains(t, buf.String(), "Giá táo?")
}

func TestRenderMessage_ProductsFromContent(t *testing.T) {
	var buf bytes.Buffer
	msg := Message{
		Role:    RoleAI,
		Agent:   "sales_agent",
		Content: "Gợi ý cho bạn:\n```json\n" + testutil.ProductPayloadJSON("Tìm thấy 2 sản phẩm", 2) + "\n```",
	}
	timeline := []TimelineEntry{SourcesEntry(2)}

	RenderMessage(&buf, msg, timeline)

	out := buf.String()
	assert.Contains(t, out, "Sales Agent")
	assert.Contains(t, out, "📚 Tìm thấy 2 nguồn thông tin")
	assert.Contains(t, out, "Gợi ý cho bạn:")
	assert.Contains(t, out, "Sản phẩm 1")
	assert.Contains(t, out, "30.000 ₫")
	assert.Contains(t, out, "Hiển thị 2 sản phẩm")
	assert.NotContains(t, out, `"product-display"`)
}

func TestRenderMessage_PrefersAttachedPayload(t *testing.T) {
	var buf bytes.Buffer
	payload := CreateTestProductPayload(1)
	payload.Products = append(payload.Products, ProductCardData{Name: "Thiếu id"})

	RenderMessage(&buf, Message{Role: RoleAI, Content: "Đây là kết quả", ProductData: payload}, nil)

	out := buf.String()
	assert.Contains(t, out, "Đây là kết quả")
	assert.Contains(t, out, "Hiển thị 1 sản phẩm (1 sản phẩm không hợp lệ đã bị loại bỏ)")
	assert.NotContains(t, out, "Thiếu id")
}

func TestRenderMessage_ThinkingBanner(t *testing.T) {
	var buf bytes.Buffer
	content := "🔍 Phân tích: tìm táo 🔄 Đang thực hiện: tra cứu ✅ Hoàn thành: xong"

	RenderMessage(&buf, Message{Role: RoleAI, Content: content}, nil)

	assert.Contains(t, buf.String(), "Hoàn thành: xong")
}
