package internal

import "fmt"

// CreateTestMessages builds alternating human/ai messages with fixed ids
func CreateTestMessages(contents ...string) []Message {
	msgs := make([]Message, len(contents))
	for i, c := range contents {
		role := RoleHuman
		if i%2 == 1 {
			role = RoleAI
		}
		msgs[i] = Message{
			Role:      role,
			Content:   c,
			ID:        fmt.Sprintf("m%d", i+1),
			Timestamp: int64(1700000000000 + i*1000),
		}
	}
	return msgs
}

// CreateTestSession creates a test session for testing purposes
func CreateTestSession(id string) *ChatSession {
	msgs := CreateTestMessages("Giá thịt bò hôm nay", "Thịt bò Úc giá 350.000đ/kg")
	msgs[1].Agent = "sales_agent"
	msgs[1].ProductData = CreateTestProductPayload(2)
	return CreateTestSessionWithMessages(id, msgs)
}

// CreateTestSessionWithMessages creates a test session with custom messages
func CreateTestSessionWithMessages(id string, messages []Message) *ChatSession {
	return &ChatSession{
		ID:           id,
		Name:         "Test Session",
		Summary:      "Cuộc trò chuyện với 1 câu hỏi và 1 phản hồi.",
		Messages:     messages,
		CreatedAt:    1700000000000,
		UpdatedAt:    1700000001000,
		MessageCount: len(messages),
		Category:     CategoryEcommerce,
		Tags:         []string{"giá", "thịt"},
	}
}

// CreateTestProductPayload creates a payload with n valid cards
func CreateTestProductPayload(n int) *ProductDisplayPayload {
	p := &ProductDisplayPayload{Type: ProductDisplayType, Message: fmt.Sprintf("Tìm thấy %d sản phẩm", n)}
	for i := 1; i <= n; i++ {
		p.Products = append(p.Products, ProductCardData{
			ID:         fmt.Sprintf("p%d", i),
			SKU:        fmt.Sprintf("SKU-%d", i),
			Name:       fmt.Sprintf("Sản phẩm %d", i),
			Price:      ProductPrice{Current: float64((i + 1) * 10000), Currency: "VND"},
			Image:      ProductImage{URL: fmt.Sprintf("https://cdn.example.com/p%d.jpg", i)},
			ProductURL: fmt.Sprintf("https://mmvietnam.com/p%d", i),
		})
	}
	return p
}
