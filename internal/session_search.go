package internal

import (
	"slices"
	"sort"
	"strings"
)

const (
	nameMatchWeight    = 100
	summaryMatchWeight = 50
	contentMatchWeight = 10
)

// SearchSessions ranks sessions against a whitespace separated query. A name
// containing every term scores 100, a summary containing any term 50, and
// each message containing any term 10. Sessions scoring zero are left out.
func SearchSessions(sessions []ChatSession, query string) []SessionSearchResult {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var results []SessionSearchResult
	for _, s := range sessions {
		score := 0
		matchType := MatchContent
		var matched *Message

		if containsAll(strings.ToLower(s.Name), terms) {
			score += nameMatchWeight
			matchType = MatchName
		}

		if s.Summary != "" && containsSome(strings.ToLower(s.Summary), terms) {
			score += summaryMatchWeight
			if matchType == MatchContent {
				matchType = MatchSummary
			}
		}

		for i := range s.Messages {
			if !containsSome(strings.ToLower(s.Messages[i].Content), terms) {
				continue
			}
			score += contentMatchWeight
			if matched == nil {
				m := s.Messages[i]
				matched = &m
			}
		}

		if score > 0 {
			results = append(results, SessionSearchResult{
				Session:        s,
				MatchType:      matchType,
				MatchedMessage: matched,
				RelevanceScore: score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results
}

// FilterSessions applies f and returns the matches newest first.
func FilterSessions(sessions []ChatSession, f SessionFilters) []ChatSession {
	out := make([]ChatSession, 0, len(sessions))
	for _, s := range sessions {
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if f.IsArchived != nil && s.IsArchived != *f.IsArchived {
			continue
		}
		if f.Start > 0 && s.UpdatedAt < f.Start {
			continue
		}
		if f.End > 0 && s.UpdatedAt > f.End {
			continue
		}
		if len(f.Tags) > 0 && !slices.ContainsFunc(s.Tags, func(tag string) bool {
			return slices.Contains(f.Tags, tag)
		}) {
			continue
		}
		out = append(out, s)
	}
	SortByUpdated(out)
	return out
}

// SortByUpdated orders sessions newest first
func SortByUpdated(sessions []ChatSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt > sessions[j].UpdatedAt
	})
}

func containsAll(s string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}

func containsSome(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
