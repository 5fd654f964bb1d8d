package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huythanhnguyen/mm-search-bot/testutil"
)

func TestParseMessage_AllDetectionShapes(t *testing.T) {
	for _, shape := range detectionShapes {
		t.Run(shape.strategy, func(t *testing.T) {
			parsed := ParseMessage(shape.content)

			assert.Equal(t, MessageKindProductDisplay, parsed.Kind)
			assert.Equal(t, shape.strategy, parsed.Strategy)
			require.NotNil(t, parsed.ProductData)
			assert.Equal(t, ProductDisplayType, parsed.ProductData.Type)
			assert.Len(t, parsed.ProductData.Products, shape.products)
		})
	}
}

func TestParseMessage_ProductsMatchSource(t *testing.T) {
	parsed := ParseMessage("```json\n" + testutil.ProductPayloadJSON("Tìm thấy 3 sản phẩm", 3) + "\n```")

	require.Equal(t, MessageKindProductDisplay, parsed.Kind)
	assert.Equal(t, CreateTestProductPayload(3), parsed.ProductData)
}

func TestParseMessage_BraceScanCardFields(t *testing.T) {
	parsed := ParseMessage(nestedCardPayload)

	require.NotNil(t, parsed.ProductData)
	assert.Equal(t, []ProductCardData{{
		ID:    "p1",
		SKU:   "SKU-1",
		Name:  "Táo Fuji",
		Price: ProductPrice{Current: 55000, Currency: "VND"},
	}}, parsed.ProductData.Products)
}

func TestParseMessage_PlainText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "simple",
			content: "Xin chào, tôi có thể giúp gì cho bạn?",
			want:    "Xin chào, tôi có thể giúp gì cho bạn?",
		},
		{
			name:    "surrounding whitespace",
			content: "\n  Chào bạn  \n",
			want:    "Chào bạn",
		},
		{
			name:    "blank lines collapsed",
			content: "Dòng một\n\n\n\nDòng hai",
			want:    "Dòng một\nDòng hai",
		},
		{
			name:    "repeated halves",
			content: "Xin chào! Tôi là trợ lý MM.Xin chào! Tôi là trợ lý MM.",
			want:    "Xin chào! Tôi là trợ lý MM.",
		},
		{
			name:    "repeated halves across newline",
			content: "Xin chào!\nXin chào!",
			want:    "Xin chào!",
		},
		{
			name:    "consecutive duplicate lines",
			content: "Dòng một\nDòng một\nDòng hai",
			want:    "Dòng một\nDòng hai",
		},
		{
			name:    "non-consecutive duplicates kept",
			content: "A\nB\nA",
			want:    "A\nB\nA",
		},
		{
			name:    "two-phase banner stripped",
			content: "Xin chào 🔍 Phân tích: câu hỏi 🔄 Đang thực hiện: tìm kiếm",
			want:    "Xin chào",
		},
		{
			name:    "bold two-phase banner stripped",
			content: "Kết quả 🔍 **Phân tích:** a 🔄 **Đang thực hiện:** b",
			want:    "Kết quả",
		},
		{
			name:    "banner only keeps original",
			content: "🔍 Phân tích: a 🔄 Đang thực hiện: b",
			want:    "🔍 Phân tích: a 🔄 Đang thực hiện: b",
		},
		{
			name:    "json without product type",
			content: `Cấu hình: {"theme":"dark"}`,
			want:    `Cấu hình: {"theme":"dark"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseMessage(tt.content)
			assert.Equal(t, MessageKindText, parsed.Kind)
			assert.Nil(t, parsed.ProductData)
			assert.Empty(t, parsed.Strategy)
			assert.Equal(t, tt.want, parsed.Text)
		})
	}
}

func TestParseMessage_WrongTypeFallsThroughToText(t *testing.T) {
	content := "```json\n{\"type\":\"table\",\"products\":[]}\n```"
	parsed := ParseMessage(content)
	assert.Equal(t, MessageKindText, parsed.Kind)
}

func TestParseMessage_ProductsNotArray(t *testing.T) {
	parsed := ParseMessage(`{"type":"product-display","products":"none"}`)
	assert.Equal(t, MessageKindText, parsed.Kind)
}

func TestParseMessage_EscapedPayload(t *testing.T) {
	content := "```json\n{\\\"type\\\":\\\"product-display\\\",\\n\\\"message\\\":\\\"Có hàng\\\",\\\"products\\\":[{\\\"id\\\":\\\"p1\\\",\\\"name\\\":\\\"Táo\\\",\\\"price\\\":{\\\"current\\\":1000,\\\"currency\\\":\\\"VND\\\"}}]}\n```"

	parsed := ParseMessage(content)

	require.Equal(t, MessageKindProductDisplay, parsed.Kind)
	assert.Equal(t, "Có hàng", parsed.ProductData.Message)
	require.Len(t, parsed.ProductData.Products, 1)
	assert.Equal(t, "Táo", parsed.ProductData.Products[0].Name)
	assert.Equal(t, "Có hàng", parsed.Text)
}

func TestParseMessage_ProductText(t *testing.T) {
	payload := testutil.ProductPayloadJSON("Danh sách sản phẩm", 1)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "only json uses payload message",
			content: payload,
			want:    "Danh sách sản phẩm",
		},
		{
			name:    "lead-in text kept",
			content: "Đây là gợi ý của tôi:\n```json\n" + payload + "\n```",
			want:    "Đây là gợi ý của tôi:",
		},
		{
			name:    "remainder containing message collapses",
			content: "Danh sách sản phẩm bên dưới\n```json\n" + payload + "\n```",
			want:    "Danh sách sản phẩm",
		},
		{
			name:    "every fenced json block stripped",
			content: "Trước\n```json\n" + payload + "\n```\nSau\n```json\n{\"x\":1}\n```",
			want:    "Trước\n\nSau",
		},
		{
			name:    "untagged fence stripped with its markers",
			content: "Kết quả:\n```\n" + payload + "\n```",
			want:    "Kết quả:",
		},
		{
			name:    "only untagged fence uses payload message",
			content: "```\n" + payload + "\n```",
			want:    "Danh sách sản phẩm",
		},
		{
			name: "first three-phase banner kept",
			content: "🔍 Phân tích: tìm táo 🔄 Đang thực hiện: tra cứu ✅ Hoàn thành: xong " +
				"🔍 Phân tích: tìm táo 🔄 Đang thực hiện: tra cứu\n```json\n" + payload + "\n```",
			want: "🔍 Phân tích: tìm táo 🔄 Đang thực hiện: tra cứu ✅ Hoàn thành: xong",
		},
		{
			name: "bold three-phase banner kept",
			content: "🔍 **Phân tích:** a 🔄 **Đang thực hiện:** b ✅ **Hoàn thành:** c " +
				"🔍 **Phân tích:** a\n```json\n" + payload + "\n```",
			want: "🔍 **Phân tích:** a 🔄 **Đang thực hiện:** b ✅ **Hoàn thành:** c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseMessage(tt.content)
			require.Equal(t, MessageKindProductDisplay, parsed.Kind)
			assert.Equal(t, tt.want, parsed.Text)
		})
	}
}

func TestExtractProductData(t *testing.T) {
	assert.Nil(t, ExtractProductData("không có sản phẩm"))

	payload := ExtractProductData("x " + testutil.ProductPayloadJSON("m", 2))
	require.NotNil(t, payload)
	assert.Len(t, payload.Products, 2)
}

func TestUnescapeEmbedded(t *testing.T) {
	assert.Equal(t, "a\n\"b\"\\", unescapeEmbedded(`a\n\"b\"\\`))
	assert.Equal(t, "plain", unescapeEmbedded("plain"))
}

func TestCleanMessageText(t *testing.T) {
	content := "Gợi ý:\n```json\n{\"a\":1}\n```\n```\n{\"b\":2}\n```\n" +
		`{"type":"product-display","message":"m","products":[]}` + "\nHết"
	assert.Equal(t, "Gợi ý:\n\n\n\nHết", CleanMessageText(content))
}

func TestValidateProducts(t *testing.T) {
	cards := CreateTestProductPayload(3).Products
	cards = append(cards,
		ProductCardData{ID: "x1", Name: "Thiếu giá"},
		ProductCardData{Name: "Thiếu id", Price: ProductPrice{Current: 1}},
		ProductCardData{ID: "x3", Price: ProductPrice{Currency: "VND"}},
		ProductCardData{ID: "x4", Name: "Chỉ có tiền tệ", Price: ProductPrice{Currency: "VND"}},
	)

	v := ValidateProducts(cards)

	assert.Len(t, v.Valid, 4)
	assert.Equal(t, 3, v.Dropped)
	assert.Equal(t, "Hiển thị 4 sản phẩm (3 sản phẩm không hợp lệ đã bị loại bỏ)", v.Summary())
}

func TestProductValidationSummary(t *testing.T) {
	assert.Equal(t, "Hiển thị 2 sản phẩm", ProductValidation{Valid: make([]ProductCardData, 2)}.Summary())
	assert.Equal(t, "Sản phẩm không hợp lệ", ProductValidation{Dropped: 1}.Summary())
	assert.Equal(t, "Không có sản phẩm nào để hiển thị", ProductValidation{}.Summary())
}
