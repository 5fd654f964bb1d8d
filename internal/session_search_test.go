package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchFixture() []ChatSession {
	return []ChatSession{
		{
			ID:       "content",
			Name:     "Hỏi đáp thông tin",
			Messages: CreateTestMessages("Có sữa tươi không?", "Có sữa tươi Vinamilk"),
		},
		{
			ID:       "name",
			Name:     "Sữa tươi không đường",
			Messages: CreateTestMessages("Tìm giúp tôi"),
		},
		{
			ID:       "summary",
			Name:     "Mua sắm",
			Summary:  "Từ khóa: sữa, bánh.",
			Messages: CreateTestMessages("Xin chào"),
		},
		{
			ID:       "none",
			Name:     "Rau củ",
			Messages: CreateTestMessages("Rau muống"),
		},
	}
}

func TestSearchSessions_Ranking(t *testing.T) {
	results := SearchSessions(searchFixture(), "Sữa tươi")

	require.Len(t, results, 3)

	assert.Equal(t, "name", results[0].Session.ID)
	assert.Equal(t, MatchName, results[0].MatchType)
	assert.Equal(t, 100, results[0].RelevanceScore)
	assert.Nil(t, results[0].MatchedMessage)

	assert.Equal(t, "summary", results[1].Session.ID)
	assert.Equal(t, MatchSummary, results[1].MatchType)
	assert.Equal(t, 50, results[1].RelevanceScore)

	assert.Equal(t, "content", results[2].Session.ID)
	assert.Equal(t, MatchContent, results[2].MatchType)
	assert.Equal(t, 20, results[2].RelevanceScore)
	require.NotNil(t, results[2].MatchedMessage)
	assert.Equal(t, "m1", results[2].MatchedMessage.ID)
}

func TestSearchSessions_NameNeedsEveryTerm(t *testing.T) {
	results := SearchSessions(searchFixture(), "sữa vinamilk")

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Session.ID
	}
	assert.Equal(t, []string{"summary", "content"}, ids)
	assert.Equal(t, MatchContent, results[1].MatchType)
}

func TestSearchSessions_EmptyQuery(t *testing.T) {
	assert.Nil(t, SearchSessions(searchFixture(), "   "))
}

func TestFilterSessions(t *testing.T) {
	archived := true
	active := false
	sessions := []ChatSession{
		{ID: "a", Category: CategoryEcommerce, UpdatedAt: 100, Tags: []string{"giá"}},
		{ID: "b", Category: CategorySupport, UpdatedAt: 300, IsArchived: true},
		{ID: "c", Category: CategoryEcommerce, UpdatedAt: 200, Tags: []string{"thịt", "giá"}},
	}

	tests := []struct {
		name    string
		filters SessionFilters
		want    []string
	}{
		{"no filters newest first", SessionFilters{}, []string{"b", "c", "a"}},
		{"category", SessionFilters{Category: CategoryEcommerce}, []string{"c", "a"}},
		{"archived", SessionFilters{IsArchived: &archived}, []string{"b"}},
		{"active", SessionFilters{IsArchived: &active}, []string{"c", "a"}},
		{"date range inclusive", SessionFilters{Start: 100, End: 200}, []string{"c", "a"}},
		{"open start", SessionFilters{End: 150}, []string{"a"}},
		{"tags any", SessionFilters{Tags: []string{"thịt", "rau"}}, []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSessions(sessions, tt.filters)
			ids := make([]string, len(got))
			for i, s := range got {
				ids[i] = s.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
