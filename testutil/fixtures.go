package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// SessionsJSON is a stored chatSessions value with two sessions
const SessionsJSON = `[
  {"id":"s-new","name":"Giá thịt bò hôm nay","summary":"Cuộc trò chuyện với 1 câu hỏi và 1 phản hồi.","messages":[
    {"type":"human","content":"Giá thịt bò hôm nay","id":"m1","timestamp":1700000100000},
    {"type":"ai","content":"Thịt bò Úc giá 350.000đ/kg","id":"m2","timestamp":1700000101000}
  ],"createdAt":1700000100000,"updatedAt":1700000101000,"messageCount":2,"category":"ecommerce","tags":["giá","thịt"]},
  {"id":"s-old","name":"Chính sách đổi trả","messages":[
    {"type":"human","content":"Chính sách đổi trả thế nào?","id":"m3","timestamp":1600000000000}
  ],"createdAt":1600000000000,"updatedAt":1600000000000,"messageCount":1,"category":"support","isArchived":true}
]`

// ProductCardJSON renders one well-formed product card
func ProductCardJSON(i int) string {
	return fmt.Sprintf(
		`{"id":"p%d","sku":"SKU-%d","name":"Sản phẩm %d","price":{"current":%d,"currency":"VND"},"image":{"url":"https://cdn.example.com/p%d.jpg"},"productUrl":"https://mmvietnam.com/p%d"}`,
		i, i, i, (i+1)*10000, i, i,
	)
}

// ProductPayloadJSON renders a product-display object with n cards
func ProductPayloadJSON(message string, n int) string {
	cards := make([]string, n)
	for i := range cards {
		cards[i] = ProductCardJSON(i + 1)
	}
	return fmt.Sprintf(`{"type":"product-display","message":%q,"products":[%s]}`, message, strings.Join(cards, ","))
}

// SSEBody joins frames into a server-sent event stream
func SSEBody(frames ...string) []byte {
	var b strings.Builder
	for _, f := range frames {
		b.WriteString("data: ")
		b.WriteString(f)
		b.WriteString("\n\n")
	}
	return []byte(b.String())
}

// ArrayBody joins frames into a non-streaming JSON event array
func ArrayBody(frames ...string) []byte {
	return []byte("[" + strings.Join(frames, ",") + "]")
}

// CreateSQLiteFixture creates a localStorage database file seeded with
// SessionsJSON
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(createLocalStorageSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if _, err := db.Exec("INSERT INTO localStorage (key, value) VALUES (?, ?)", "chatSessions", SessionsJSON); err != nil {
		t.Fatalf("Failed to insert sessions: %v", err)
	}
}
