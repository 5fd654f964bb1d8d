package internal

import (
	"regexp"
	"strings"
)

// Candidate is a span of message text that may hold a product payload
type Candidate struct {
	// Text is the span exactly as it appears in the message
	Text string
	// Fenced is set when the span came from a ```json block; cleanup then
	// strips every such block instead of just the span.
	Fenced bool
	// Block is the whole match including its fence, when it was fenced
	// without a language tag. Cleanup strips it instead of Text.
	Block string
}

// JSONExtractor locates one shape of embedded product JSON
type JSONExtractor interface {
	Name() string
	Extract(content string) (Candidate, bool)
}

var (
	fencedJSONRe    = regexp.MustCompile("```json\\s*(\\{[\\s\\S]*?\\})\\s*```")
	fencedPlainRe   = regexp.MustCompile("```\\s*(\\{[\\s\\S]*?\\})\\s*```")
	inlineTypedRe   = regexp.MustCompile(`(\{[\s\S]*?"type"\s*:\s*"product-display"[\s\S]*?"products"\s*:\s*\[[\s\S]*?\][\s\S]*?\})`)
	productsOnlyRe  = regexp.MustCompile(`(\{[\s\S]*?"products"\s*:\s*\[[\s\S]*?\][\s\S]*?\})`)
	minimalTypedRe  = regexp.MustCompile(`\{[^{}]*"type"\s*:\s*"product-display"[^{}]*\}`)
	fencedJSONBlock = regexp.MustCompile("```json[\\s\\S]*?```")
)

var defaultExtractors = []JSONExtractor{
	fencedJSONExtractor{},
	fencedPlainExtractor{},
	inlineTypedExtractor{},
	multilineExtractor{},
	productsOnlyExtractor{},
	minimalTypedExtractor{},
	braceScanExtractor{},
}

// Extractors returns the detection strategies in priority order
func Extractors() []JSONExtractor {
	out := make([]JSONExtractor, len(defaultExtractors))
	copy(out, defaultExtractors)
	return out
}

type fencedJSONExtractor struct{}

func (fencedJSONExtractor) Name() string { return "fenced-json" }

func (fencedJSONExtractor) Extract(content string) (Candidate, bool) {
	m := fencedJSONRe.FindStringSubmatch(content)
	if m == nil {
		return Candidate{}, false
	}
	return Candidate{Text: m[1], Fenced: true}, true
}

type fencedPlainExtractor struct{}

func (fencedPlainExtractor) Name() string { return "fenced-plain" }

func (fencedPlainExtractor) Extract(content string) (Candidate, bool) {
	m := fencedPlainRe.FindStringSubmatch(content)
	if m == nil {
		return Candidate{}, false
	}
	return Candidate{Text: m[1], Block: m[0]}, true
}

type inlineTypedExtractor struct{}

func (inlineTypedExtractor) Name() string { return "inline-typed" }

func (inlineTypedExtractor) Extract(content string) (Candidate, bool) {
	return submatch(inlineTypedRe, content)
}

// multilineExtractor walks lines looking for an opening brace that mentions
// "type" (or is followed by a line that does) and tracks depth line by line
// until it closes. Braces on the opening line itself are not counted.
type multilineExtractor struct{}

func (multilineExtractor) Name() string { return "multiline" }

func (multilineExtractor) Extract(content string) (Candidate, bool) {
	lines := strings.Split(content, "\n")
	start, end := -1, -1
	depth := 0

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		opens := strings.HasPrefix(line, "{") &&
			(strings.Contains(line, `"type"`) ||
				strings.Contains(line, `"product-display"`) ||
				(i < len(lines)-1 && strings.Contains(lines[i+1], `"type"`)))

		if opens {
			start = i
			depth = 1
			continue
		}
		if start < 0 {
			continue
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth == 0 {
			end = i
			break
		}
	}

	if start < 0 || end < 0 {
		return Candidate{}, false
	}
	return Candidate{Text: strings.Join(lines[start:end+1], "\n")}, true
}

type productsOnlyExtractor struct{}

func (productsOnlyExtractor) Name() string { return "products-only" }

func (productsOnlyExtractor) Extract(content string) (Candidate, bool) {
	return submatch(productsOnlyRe, content)
}

// minimalTypedExtractor finds a brace-free object naming the product type and
// then recovers its real extent by brace counting from its start.
type minimalTypedExtractor struct{}

func (minimalTypedExtractor) Name() string { return "minimal-typed" }

func (minimalTypedExtractor) Extract(content string) (Candidate, bool) {
	loc := minimalTypedRe.FindStringIndex(content)
	if loc == nil {
		return Candidate{}, false
	}
	span, ok := balancedSpan(content, loc[0])
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Text: span}, true
}

type braceScanExtractor struct{}

func (braceScanExtractor) Name() string { return "brace-scan" }

func (braceScanExtractor) Extract(content string) (Candidate, bool) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return Candidate{}, false
	}
	span, ok := balancedSpan(content, start)
	if !ok {
		return Candidate{}, false
	}
	if !strings.Contains(span, `"type"`) || !strings.Contains(span, `"product-display"`) {
		return Candidate{}, false
	}
	return Candidate{Text: span}, true
}

func submatch(re *regexp.Regexp, content string) (Candidate, bool) {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return Candidate{}, false
	}
	return Candidate{Text: m[1]}, true
}

// balancedSpan returns content[start:end+1] where end is the brace closing
// the one at start. Braces inside strings are counted too.
func balancedSpan(content string, start int) (string, bool) {
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				if i > start {
					return content[start : i+1], true
				}
				return "", false
			}
		}
	}
	return "", false
}
