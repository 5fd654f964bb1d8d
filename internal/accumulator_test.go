package internal

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huythanhnguyen/mm-search-bot/testutil"
)

func newTestTurn(t *testing.T) (*MessageList, *TimelineIndex, *TurnAccumulator) {
	t.Helper()
	list := NewMessageList(
		Message{Role: RoleHuman, Content: "Tìm táo", ID: "h1"},
		Message{Role: RoleAI, ID: "a1"},
	)
	timeline := NewTimelineIndex()
	return list, timeline, NewTurnAccumulator(list, timeline, "a1")
}

// functionResponseEvent embeds result as a JSON string the way the backend does
func functionResponseEvent(t *testing.T, name, result string) string {
	t.Helper()
	resp, err := json.Marshal(map[string]any{"result": result})
	require.NoError(t, err)
	return fmt.Sprintf(`{"author":"sales_agent","content":{"parts":[{"functionResponse":{"name":%q,"response":%s}}]}}`, name, resp)
}

func stateDeltaEvent(t *testing.T, key, value string) string {
	t.Helper()
	v, err := json.Marshal(value)
	require.NoError(t, err)
	return fmt.Sprintf(`{"actions":{"stateDelta":{%q:%s}}}`, key, v)
}

func TestTurnAccumulator_FunctionResponseAttachesProductsImmediately(t *testing.T) {
	list, timeline, acc := newTestTurn(t)

	acc.ApplyRaw([]byte(functionResponseEvent(t, "search", testutil.ProductPayloadJSON("Found 2", 2))))

	msg, ok := list.Get("a1")
	require.True(t, ok)
	require.NotNil(t, msg.ProductData)
	assert.Equal(t, "Found 2", msg.ProductData.Message)
	assert.Len(t, msg.ProductData.Products, 2)
	assert.Equal(t, CreateTestProductPayload(2).Products, msg.ProductData.Products)
	assert.True(t, msg.FinalReportWithCitations)

	entries := timeline.Get("a1")
	require.Len(t, entries, 1)
	assert.Equal(t, "Function Response: search", entries[0].Title)
	assert.Equal(t, TimelineFunctionResponse, entries[0].Data.Type)
}

func TestTurnAccumulator_FunctionResponseWithoutProducts(t *testing.T) {
	list, timeline, acc := newTestTurn(t)

	acc.ApplyRaw([]byte(functionResponseEvent(t, "lookup", "plain answer")))
	acc.ApplyRaw([]byte(functionResponseEvent(t, "lookup", `{"type":"other"}`)))

	msg, _ := list.Get("a1")
	assert.Nil(t, msg.ProductData)
	assert.False(t, msg.FinalReportWithCitations)
	assert.Len(t, timeline.Get("a1"), 2)
}

func TestTurnAccumulator_FunctionCallTimeline(t *testing.T) {
	_, timeline, acc := newTestTurn(t)

	acc.ApplyRaw([]byte(`{"content":{"parts":[{"functionCall":{"name":"search_products","args":{"q":"táo"},"id":"c1"}}]}}`))

	entries := timeline.Get("a1")
	require.Len(t, entries, 1)
	assert.Equal(t, "Function Call: search_products", entries[0].Title)
	assert.Equal(t, "c1", entries[0].Data.ID)
	assert.JSONEq(t, `{"q":"táo"}`, string(entries[0].Data.Args))
}

func TestTurnAccumulator_TextReplacesWithFullBuffer(t *testing.T) {
	list, _, acc := newTestTurn(t)

	acc.ApplyRaw([]byte(`{"author":"sales_agent","content":{"parts":[{"text":"Táo"},{"text":"Fuji"}]}}`))
	acc.ApplyRaw([]byte(`{"content":{"parts":[{"text":" giá tốt"}]}}`))
	acc.ApplyRaw([]byte(`{"content":{"parts":[{"text":"   "}]}}`))

	msg, _ := list.Get("a1")
	assert.Equal(t, "Táo Fuji giá tốt", msg.Content)
	assert.Equal(t, "sales_agent", msg.Agent)
	assert.Equal(t, "Táo Fuji giá tốt", acc.Text())
	assert.Equal(t, "sales_agent", acc.Agent())
}

func TestTurnAccumulator_FinalReportWithProductJSONIsVerbatim(t *testing.T) {
	list, _, acc := newTestTurn(t)
	report := "✅ Done\n\n" + testutil.ProductPayloadJSON("Tìm thấy 2 sản phẩm", 2)

	acc.ApplyRaw([]byte(`{"content":{"parts":[{"text":"Đang tìm..."}]}}`))
	acc.ApplyRaw([]byte(stateDeltaEvent(t, "final_report_with_citations", report)))

	msg, _ := list.Get("a1")
	assert.Equal(t, report, msg.Content)
	assert.True(t, msg.FinalReportWithCitations)
	require.NotNil(t, msg.ProductData)
	assert.Len(t, msg.ProductData.Products, 2)
}

func TestTurnAccumulator_FinalReportWithoutProductsIsPrefixed(t *testing.T) {
	list, _, acc := newTestTurn(t)

	acc.ApplyRaw([]byte(`{"content":{"parts":[{"text":"Kết quả tìm kiếm"}]}}`))
	acc.ApplyRaw([]byte(stateDeltaEvent(t, "final_report_with_citations", "Nguồn: mmvietnam.com")))

	msg, _ := list.Get("a1")
	assert.Equal(t, "Kết quả tìm kiếm\n\nNguồn: mmvietnam.com", msg.Content)
	assert.Nil(t, msg.ProductData)
	assert.True(t, msg.FinalReportWithCitations)
}

func TestTurnAccumulator_FinalReportWithEmptyBuffer(t *testing.T) {
	list, _, acc := newTestTurn(t)

	acc.ApplyRaw([]byte(stateDeltaEvent(t, "final_report_with_citations", "Chỉ có báo cáo")))

	msg, _ := list.Get("a1")
	assert.Equal(t, "Chỉ có báo cáo", msg.Content)
}

func TestTurnAccumulator_CoordinatorResponseOverridesBuffer(t *testing.T) {
	list, _, acc := newTestTurn(t)

	acc.ApplyRaw([]byte(`{"content":{"parts":[{"text":"tạm thời"}]}}`))
	coord := "Đây là sản phẩm:\n```json\n" + testutil.ProductPayloadJSON("m", 1) + "\n```"
	acc.ApplyRaw([]byte(stateDeltaEvent(t, "last_coordinator_response", coord)))

	msg, _ := list.Get("a1")
	assert.Equal(t, coord, msg.Content)
	assert.True(t, msg.FinalReportWithCitations)
	require.NotNil(t, msg.ProductData)
	assert.Len(t, msg.ProductData.Products, 1)
}

func TestTurnAccumulator_EffectsApplyInOrderWithinOneEvent(t *testing.T) {
	list, timeline, acc := newTestTurn(t)

	// text, then the final report sees the buffer that text just extended
	acc.ApplyRaw([]byte(`{"author":"research_agent","content":{"parts":[{"text":"Phần đầu"}]},
		"actions":{"stateDelta":{"final_report_with_citations":"Phần cuối","sources":[1,2,3]}}}`))

	msg, _ := list.Get("a1")
	assert.Equal(t, "Phần đầu\n\nPhần cuối", msg.Content)
	assert.Equal(t, "research_agent", msg.Agent)

	entries := timeline.Get("a1")
	require.Len(t, entries, 1)
	assert.Equal(t, "📚 Tìm thấy 3 nguồn thông tin", entries[0].Title)
	assert.Equal(t, 3, entries[0].Data.Count)
}

func TestTurnAccumulator_UnknownMessageIsIgnored(t *testing.T) {
	list := NewMessageList()
	acc := NewTurnAccumulator(list, NewTimelineIndex(), "missing")

	acc.ApplyRaw([]byte(`{"content":{"parts":[{"text":"x"}]}}`))

	assert.Equal(t, 0, list.Len())
	assert.Equal(t, "x", acc.Text())
}

func TestTurnAccumulator_RecordsTokenUsage(t *testing.T) {
	_, _, acc := newTestTurn(t)
	usage := NewTokenUsage()
	acc.WithTokenUsage(usage)

	acc.ApplyRaw([]byte(`{"usageMetadata":{"totalTokenCount":2500}}`))

	assert.True(t, usage.Exceeds(DefaultTokenWarnThreshold))
}

func TestFoldNonStreaming(t *testing.T) {
	tests := []struct {
		name         string
		body         []byte
		wantText     string
		wantAgent    string
		wantProducts int
	}{
		{
			name: "last text and product win",
			body: testutil.ArrayBody(
				`{"author":"a","content":{"parts":[{"text":"một"}]}}`,
				`{"author":"b","content":{"parts":[{"text":"hai"},{"text":"ba"}]}}`,
			),
			wantText:  "ba",
			wantAgent: "b",
		},
		{
			name:     "plain body used as text",
			body:     []byte("Backend trả lời trực tiếp"),
			wantText: "Backend trả lời trực tiếp",
		},
		{
			name:     "array without text falls back to body",
			body:     testutil.ArrayBody(`{"author":""}`),
			wantText: `[{"author":""}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FoldNonStreaming(tt.body, nil)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantAgent, got.Agent)
		})
	}
}

func TestFoldNonStreaming_ProductResult(t *testing.T) {
	resp, err := json.Marshal(map[string]any{"result": testutil.ProductPayloadJSON("Found 3", 3)})
	require.NoError(t, err)
	body := testutil.ArrayBody(
		fmt.Sprintf(`{"content":{"parts":[{"functionResponse":{"name":"%s","response":%s}}]}}`, ProductDisplayFunction, resp),
		`{"content":{"parts":[{"text":"Đây là các sản phẩm"}]}}`,
	)

	got := FoldNonStreaming(body, nil)

	assert.Equal(t, "Đây là các sản phẩm", got.Text)
	require.NotNil(t, got.ProductData)
	assert.Equal(t, "Found 3", got.ProductData.Message)
	assert.Len(t, got.ProductData.Products, 3)
}

func TestMessageList_ObserversSeeSnapshots(t *testing.T) {
	list := NewMessageList()
	var lens []int
	list.Observe(func(msgs []Message) { lens = append(lens, len(msgs)) })

	list.Append(Message{ID: "1"})
	list.Append(Message{ID: "2"})
	assert.True(t, list.Update("1", func(m *Message) { m.Content = "x" }))
	assert.False(t, list.Update("nope", func(m *Message) {}))
	list.Reset(nil)

	assert.Equal(t, []int{1, 2, 2, 0}, lens)
}
