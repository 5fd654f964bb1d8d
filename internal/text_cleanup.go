package internal

import (
	"regexp"
	"sort"
	"strings"
)

// Progress banner markers some agents prefix to their answers
const (
	markerAnalysisBold = "🔍 **Phân tích:**"
	markerAnalysis     = "🔍 Phân tích:"
	markerWorkingBold  = "🔄 **Đang thực hiện:**"
	markerWorking      = "🔄 Đang thực hiện:"
	markerDoneBold     = "✅ **Hoàn thành:**"
	markerDone         = "✅ Hoàn thành:"
)

var bannerMarkers = []string{
	markerAnalysisBold, markerAnalysis,
	markerWorkingBold, markerWorking,
	markerDoneBold, markerDone,
}

// first complete banner, tried in order
var firstBannerRes = []*regexp.Regexp{
	regexp.MustCompile(`🔍 \*\*Phân tích:\*\*[^🔄]*🔄 \*\*Đang thực hiện:\*\*[^✅]*✅ \*\*Hoàn thành:\*\*[^🔍]*`),
	regexp.MustCompile(`🔍 Phân tích:[^🔄]*🔄 Đang thực hiện:[^✅]*✅ Hoàn thành:[^🔍]*`),
	regexp.MustCompile(`🔍 \*\*Phân tích:\*\*[^🔄]*🔄 \*\*Đang thực hiện:\*\*`),
	regexp.MustCompile(`🔍 Phân tích:[^🔄]*🔄 Đang thực hiện:[^🔍]*`),
}

// analysis sections up to the next analysis marker
var analysisSectionRes = []*regexp.Regexp{
	regexp.MustCompile(`🔍 \*\*Phân tích:\*\*[^🔍]*`),
	regexp.MustCompile(`🔍 Phân tích:[^🔍]*`),
}

// two-phase banners dropped from plain text
var plainBannerRes = []*regexp.Regexp{
	regexp.MustCompile(`🔍 \*\*Phân tích:\*\*[^🔄]*🔄 \*\*Đang thực hiện:\*\*[^🔍]*`),
	regexp.MustCompile(`🔍 Phân tích:[^🔄]*🔄 Đang thực hiện:[^🔍]*`),
}

var (
	bannerSplitRe = regexp.MustCompile(`🔍 \*\*Phân tích:\*\*|🔍 Phân tích:|🔄 \*\*Đang thực hiện:\*\*|🔄 Đang thực hiện:|✅ \*\*Hoàn thành:\*\*|✅ Hoàn thành:`)
	blankLinesRe  = regexp.MustCompile(`\n\s*\n`)

	fencedObjectRe   = regexp.MustCompile("```\\s*\\{[\\s\\S]*?\\}\\s*```")
	inlineProductsRe = regexp.MustCompile(`\{[^{}]*"type"\s*:\s*"product-display"[^{}]*"products"\s*:[\s\S]*?\}`)
)

// cleanProductText derives the text shown above a product grid.
func cleanProductText(content string, cand Candidate, payload *ProductDisplayPayload) string {
	var text string
	switch {
	case cand.Fenced:
		text = strings.TrimSpace(fencedJSONBlock.ReplaceAllString(content, ""))
	case cand.Block != "":
		text = strings.TrimSpace(strings.Replace(content, cand.Block, "", 1))
	default:
		text = strings.TrimSpace(strings.Replace(content, cand.Text, "", 1))
	}

	if text == "" || text == cand.Text {
		text = payload.Message
	}
	if text != "" && payload.Message != "" && strings.Contains(text, payload.Message) {
		text = payload.Message
	}

	if hasAnalysisMarker(text) {
		for _, re := range firstBannerRes {
			if m := re.FindString(text); m != "" {
				text = m
				break
			}
		}
	}

	if containsAny(text, bannerMarkers) {
		text = strings.TrimSpace(strings.Join(uniqueSections(splitBeforeMarkers(text)), ""))
	}

	if hasAnalysisMarker(text) {
		for _, re := range analysisSectionRes {
			matches := re.FindAllString(text, -1)
			if len(matches) < 2 {
				continue
			}
			marker := markerAnalysis
			if strings.Contains(matches[0], "**") {
				marker = markerAnalysisBold
			}
			from := len(matches[0])
			if idx := strings.Index(text[from:], marker); idx >= 0 && from+idx > 0 {
				text = strings.TrimSpace(text[:from+idx])
			}
			break
		}
	}

	return text
}

// cleanPlainText strips two-phase banners, collapses blank lines and repairs
// whole-text or consecutive-line repetition.
func cleanPlainText(content string) string {
	text := content
	for _, re := range plainBannerRes {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(blankLinesRe.ReplaceAllString(text, "\n"))

	if text == "" {
		return content
	}

	if half, ok := repeatedHalf(text); ok {
		text = half
	} else {
		text = dedupeConsecutiveLines(text)
	}

	if text == "" {
		return content
	}
	return text
}

// repeatedHalf reports whether s splits at its rune midpoint into two halves
// that are equal after trimming.
func repeatedHalf(s string) (string, bool) {
	runes := []rune(s)
	mid := len(runes) / 2
	first := strings.TrimSpace(string(runes[:mid]))
	second := strings.TrimSpace(string(runes[mid:]))
	if first != second {
		return "", false
	}
	return first, true
}

// dedupeConsecutiveLines drops blank lines and any line identical to the one
// kept before it.
func dedupeConsecutiveLines(s string) string {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(kept) > 0 && kept[len(kept)-1] == line {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// splitBeforeMarkers cuts s immediately before every banner marker.
func splitBeforeMarkers(s string) []string {
	locs := bannerSplitRe.FindAllStringIndex(s, -1)
	cuts := make([]int, 0, len(locs))
	for _, loc := range locs {
		if loc[0] > 0 {
			cuts = append(cuts, loc[0])
		}
	}
	sort.Ints(cuts)

	parts := make([]string, 0, len(cuts)+1)
	prev := 0
	for _, cut := range cuts {
		parts = append(parts, s[prev:cut])
		prev = cut
	}
	return append(parts, s[prev:])
}

// uniqueSections keeps non-blank sections whose trimmed text did not appear
// earlier.
func uniqueSections(parts []string) []string {
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		key := strings.TrimSpace(part)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, part)
	}
	return out
}

func hasAnalysisMarker(s string) bool {
	return strings.Contains(s, markerAnalysisBold) || strings.Contains(s, markerAnalysis)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// CleanMessageText removes fenced JSON blocks and inline product objects,
// leaving only prose.
func CleanMessageText(content string) string {
	cleaned := fencedJSONBlock.ReplaceAllString(content, "")
	cleaned = fencedObjectRe.ReplaceAllString(cleaned, "")
	cleaned = inlineProductsRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
