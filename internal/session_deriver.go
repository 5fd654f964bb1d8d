package internal

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// keeps ASCII word characters, whitespace and Latin letters with diacritics
var nonWordRe = regexp.MustCompile(`[^\w\s\x{00C0}-\x{1EF9}]`)

var (
	greetingPrefixRe = regexp.MustCompile(`(?i)^(xin chào|chào|hi|hello|hey)`)
	requestPrefixRe  = regexp.MustCompile(`(?i)^(bạn có thể|bạn có|bạn|can you|could you|please)`)
	leadingSepRe     = regexp.MustCompile(`^[,\s]+`)
	trailingSepRe    = regexp.MustCompile(`[,\s]+$`)
)

var productNameKeywords = []string{"sản phẩm", "mua", "giá", "thịt", "rau", "trái cây", "đồ uống", "bánh kẹo"}

type topicPattern struct {
	re    *regexp.Regexp
	label string
}

var chatTopicPatterns = []topicPattern{
	{regexp.MustCompile(`(?i)sản phẩm|mua|giá|thịt|rau|trái cây|đồ uống|bánh kẹo|đồ gia dụng|thực phẩm`), "Mua sắm"},
	{regexp.MustCompile(`(?i)thông tin|giới thiệu|về|công ty|cửa hàng|chi nhánh|địa chỉ`), "Thông tin"},
	{regexp.MustCompile(`(?i)hỗ trợ|giúp|vấn đề|lỗi|khó khăn|thắc mắc`), "Hỗ trợ"},
	{regexp.MustCompile(`(?i)đặt hàng|thanh toán|giao hàng|vận chuyển|shipping|delivery`), "Đơn hàng"},
	{regexp.MustCompile(`(?i)chính sách|quy định|điều khoản|hướng dẫn`), "Chính sách"},
}

// chat topic label to session category
var topicCategories = map[string]string{
	"Mua sắm":    CategoryEcommerce,
	"Hỗ trợ":     CategorySupport,
	"Thông tin":  CategoryGeneral,
	"Đơn hàng":   CategoryEcommerce,
	"Chính sách": CategorySupport,
}

var stopWords = toSet(
	"tôi", "bạn", "là", "có", "và", "của", "trong", "để", "với", "này", "đó",
	"được", "cho", "như", "về", "một", "các", "hay", "sẽ", "cần", "gì", "ai",
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "i", "it", "for",
	"not", "on", "with", "he", "as", "you", "do", "at", "this", "but", "his",
	"what", "how", "when", "where", "why", "can", "could", "would", "should",
)

var (
	ecommerceWords = toSet("sản phẩm", "giá", "mua", "bán", "đặt hàng", "giỏ hàng", "thanh toán", "product", "price", "buy", "order", "cart", "payment")
	techWords      = toSet("code", "lập trình", "phần mềm", "website", "ứng dụng", "programming", "software", "application", "development")
	supportWords   = toSet("hỏi", "trả lời", "giúp", "hỗ trợ", "question", "answer", "help", "support")
)

// Topic labels produced by ExtractTopics
const (
	TopicShopping = "Mua sắm"
	TopicTech     = "Công nghệ"
	TopicSupport  = "Hỗ trợ chung"
	TopicChat     = "Trò chuyện"
)

// FormatDate renders a day the way vi-VN locales do (d/m/yyyy)
func FormatDate(t time.Time) string {
	return t.Format("2/1/2006")
}

// GenerateSessionName names a session after its first human message, or its
// top keywords, or the fallback pattern.
func GenerateSessionName(messages []Message, opts NamingOptions, now time.Time) string {
	fallback := strings.ReplaceAll(opts.FallbackPattern, "{date}", FormatDate(now))
	if len(messages) == 0 {
		return fallback
	}

	first, ok := firstHuman(messages)
	if opts.UseFirstMessage && ok {
		name := strings.TrimSpace(first.Content)
		name = nonWordRe.ReplaceAllString(name, "")
		name = strings.SplitN(name, "\n", 2)[0]
		name = truncate(name, opts.MaxLength)
		if name == "" {
			return fallback
		}
		return name
	}

	if opts.UseKeywords {
		if keywords := ExtractKeywords(messages); len(keywords) > 0 {
			return truncate(strings.Join(head(keywords, 3), " "), opts.MaxLength)
		}
	}
	return fallback
}

// GenerateSmartSessionName builds a short title from the first human message
// with greetings and request phrasing stripped. Short remainders are replaced
// by a label picked from keywords found anywhere in the conversation.
func GenerateSmartSessionName(messages []Message, maxLength int) string {
	first, ok := firstHuman(messages)
	if !ok {
		return DefaultSessionName
	}

	content := strings.TrimSpace(first.Content)
	content = greetingPrefixRe.ReplaceAllString(content, "")
	content = requestPrefixRe.ReplaceAllString(content, "")
	content = leadingSepRe.ReplaceAllString(content, "")
	content = trailingSepRe.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	if utf8.RuneCountInString(content) < 10 {
		content = keywordLabel(messages)
	}

	content = capitalize(content)
	content = truncate(content, maxLength)
	if content == "" {
		return DefaultSessionName
	}
	return content
}

func keywordLabel(messages []Message) string {
	anyContains := func(kw string) bool {
		for _, m := range messages {
			if strings.Contains(strings.ToLower(m.Content), kw) {
				return true
			}
		}
		return false
	}

	for _, kw := range productNameKeywords {
		if anyContains(kw) {
			return "Tìm kiếm " + kw
		}
	}
	switch {
	case anyContains("thông tin"):
		return "Hỏi đáp thông tin"
	case anyContains("giúp"):
		return "Yêu cầu hỗ trợ"
	case anyContains("đặt hàng"):
		return "Đặt hàng"
	default:
		return "Hỏi đáp thông tin"
	}
}

// ExtractChatTopics counts, per topic family, the messages that mention it
// and returns the three most frequent labels. Ties keep first-seen order.
func ExtractChatTopics(messages []Message) []string {
	counts := make(map[string]int)
	var order []string
	for _, m := range messages {
		for _, p := range chatTopicPatterns {
			if !p.re.MatchString(m.Content) {
				continue
			}
			if _, seen := counts[p.label]; !seen {
				order = append(order, p.label)
			}
			counts[p.label]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return head(order, 3)
}

// ExtractKeywords ranks the words of all messages by frequency. Words of two
// characters or fewer and stopwords are skipped; ties keep first-seen order.
func ExtractKeywords(messages []Message) []string {
	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = strings.ToLower(norm.NFC.String(m.Content))
	}
	all := nonWordRe.ReplaceAllString(strings.Join(texts, " "), " ")

	counts := make(map[string]int)
	var order []string
	for _, word := range strings.Fields(all) {
		if utf8.RuneCountInString(word) <= 2 || stopWords[word] {
			continue
		}
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return head(order, 10)
}

// ExtractTopics maps keywords onto the commerce, tech and support families.
func ExtractTopics(messages []Message) []string {
	keywords := ExtractKeywords(messages)
	var topics []string
	if anyIn(keywords, ecommerceWords) {
		topics = append(topics, TopicShopping)
	}
	if anyIn(keywords, techWords) {
		topics = append(topics, TopicTech)
	}
	if anyIn(keywords, supportWords) {
		topics = append(topics, TopicSupport)
	}
	if len(topics) == 0 {
		return []string{TopicChat}
	}
	return topics
}

// CategorizeSession picks the first matching family: commerce, tech, support.
func CategorizeSession(messages []Message) string {
	topics := ExtractTopics(messages)
	switch {
	case slices.Contains(topics, TopicShopping):
		return CategoryEcommerce
	case slices.Contains(topics, TopicTech):
		return CategoryTech
	case slices.Contains(topics, TopicSupport):
		return CategorySupport
	default:
		return CategoryGeneral
	}
}

// GenerateSessionSummary describes the conversation in one templated sentence
func GenerateSessionSummary(messages []Message, opts SummaryOptions) string {
	if len(messages) == 0 {
		return ""
	}

	humans, ais := 0, 0
	for _, m := range messages {
		switch m.Role {
		case RoleHuman:
			humans++
		case RoleAI:
			ais++
		}
	}
	topics := ExtractTopics(messages)
	keywords := ExtractKeywords(messages)

	var b strings.Builder
	if opts.Language == "en" {
		fmt.Fprintf(&b, "Conversation with %d questions and %d responses.", humans, ais)
		if len(topics) > 0 {
			fmt.Fprintf(&b, " Main topics: %s.", strings.Join(head(topics, 2), ", "))
		}
		if opts.IncludeKeywords && len(keywords) > 0 {
			fmt.Fprintf(&b, " Keywords: %s.", strings.Join(head(keywords, 3), ", "))
		}
	} else {
		fmt.Fprintf(&b, "Cuộc trò chuyện với %d câu hỏi và %d phản hồi.", humans, ais)
		if len(topics) > 0 {
			fmt.Fprintf(&b, " Chủ đề chính: %s.", strings.Join(head(topics, 2), ", "))
		}
		if opts.IncludeKeywords && len(keywords) > 0 {
			fmt.Fprintf(&b, " Từ khóa: %s.", strings.Join(head(keywords, 3), ", "))
		}
	}
	return truncate(b.String(), opts.MaxLength)
}

// CreateSessionFromMessages builds a fresh session record. An empty
// sessionID mints a new one.
func CreateSessionFromMessages(messages []Message, sessionID string, now time.Time, opts SummaryOptions) ChatSession {
	if sessionID == "" {
		sessionID = NewSessionID(now)
	}
	nowMs := now.UnixMilli()

	stamped := make([]Message, len(messages))
	for i, m := range messages {
		if m.Timestamp == 0 {
			m.Timestamp = nowMs
		}
		stamped[i] = m
	}

	return ChatSession{
		ID:           sessionID,
		Name:         GenerateSessionName(messages, DefaultNamingOptions(), now),
		Summary:      GenerateSessionSummary(messages, opts),
		Messages:     stamped,
		CreatedAt:    nowMs,
		UpdatedAt:    nowMs,
		MessageCount: len(messages),
		Category:     CategorizeSession(messages),
		Tags:         head(ExtractKeywords(messages), 5),
	}
}

// ApplySmartNaming replaces name, tags and category with the chat-topic
// based variants used for sessions that were never named explicitly.
func ApplySmartNaming(s *ChatSession, messages []Message) {
	s.Name = GenerateSmartSessionName(messages, 40)
	topics := ExtractChatTopics(messages)
	if len(topics) == 0 {
		return
	}
	s.Tags = topics
	if category, ok := topicCategories[topics[0]]; ok {
		s.Category = category
	} else {
		s.Category = CategoryGeneral
	}
}

// DeriveSession builds the session record for the live message list. Without
// a session id, or while the name is still the default, the smart naming
// rules apply.
func DeriveSession(messages []Message, sessionID string, now time.Time, opts SummaryOptions) ChatSession {
	s := CreateSessionFromMessages(messages, sessionID, now, opts)
	if sessionID == "" || s.Name == DefaultSessionName {
		ApplySmartNaming(&s, messages)
	}
	return s
}

func firstHuman(messages []Message) (Message, bool) {
	for _, m := range messages {
		if m.Role == RoleHuman {
			return m, true
		}
	}
	return Message{}, false
}

func truncate(s string, max int) string {
	if max <= 3 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func anyIn(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}
