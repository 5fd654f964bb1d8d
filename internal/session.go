package internal

// Session categories
const (
	CategoryEcommerce = "ecommerce"
	CategorySupport   = "support"
	CategoryTech      = "tech"
	CategoryGeneral   = "general"
)

// DefaultSessionName is shown before a conversation has content
const DefaultSessionName = "Cuộc trò chuyện mới"

// ChatSession is a persisted conversation record
type ChatSession struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Summary      string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	Messages     []Message `json:"messages" yaml:"messages"`
	CreatedAt    int64     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    int64     `json:"updatedAt" yaml:"updatedAt"`
	MessageCount int       `json:"messageCount" yaml:"messageCount"`
	Category     string    `json:"category,omitempty" yaml:"category,omitempty"`
	IsArchived   bool      `json:"isArchived,omitempty" yaml:"isArchived,omitempty"`
	Tags         []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// MatchType tells which field of a session produced a search hit
type MatchType string

const (
	MatchName    MatchType = "name"
	MatchSummary MatchType = "summary"
	MatchContent MatchType = "content"
)

// SessionSearchResult is one ranked search hit
type SessionSearchResult struct {
	Session        ChatSession
	MatchType      MatchType
	MatchedMessage *Message
	RelevanceScore int
}

// SessionFilters narrows a session list; zero values match everything
type SessionFilters struct {
	Category   string
	IsArchived *bool
	Start, End int64 // epoch millis, inclusive; zero means open
	Tags       []string
}

// SummaryOptions controls GenerateSessionSummary
type SummaryOptions struct {
	MaxLength       int
	IncludeKeywords bool
	Language        string // "vi" or "en"
}

// DefaultSummaryOptions mirrors the options the sidebar used
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{MaxLength: 150, IncludeKeywords: true, Language: "vi"}
}

// NamingOptions controls GenerateSessionName
type NamingOptions struct {
	UseFirstMessage bool
	UseKeywords     bool
	MaxLength       int
	// FallbackPattern may contain {date}, replaced with the formatted day.
	FallbackPattern string
}

// DefaultNamingOptions returns the options used for new sessions
func DefaultNamingOptions() NamingOptions {
	return NamingOptions{
		UseFirstMessage: true,
		UseKeywords:     true,
		MaxLength:       50,
		FallbackPattern: "Cuộc trò chuyện {date}",
	}
}
