package digest

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/marketbrief/marketbrief/internal/core/domain"
)

var (
	// sentimentDirectiveRe matches a leading explicit sentiment directive
	// line emitted by the upstream commentary provider.
	sentimentDirectiveRe = regexp.MustCompile(`(?i)^\s*SENTIMENT:\s*(BULLISH|BEARISH|NEUTRAL)\s*\n?`)

	boldMarkerRe    = regexp.MustCompile(`\*\*`)
	ordinalMarkerRe = regexp.MustCompile(`(?m)^\d+\.[ \t]`)
	newlineRunRe    = regexp.MustCompile(`\n[ \t]*\n[\s]*`)
)

// ExtractSentimentDirective detects and removes a leading
// "SENTIMENT: BULLISH|BEARISH|NEUTRAL" line, returning the mapped verdict
// (nil when absent) and the remaining text. It runs before any other
// processing touches the text.
func ExtractSentimentDirective(text string) (*domain.Verdict, string) {
	m := sentimentDirectiveRe.FindStringSubmatch(text)
	if m == nil {
		return nil, text
	}

	verdict := directiveVerdict(m[1])

	return &verdict, sentimentDirectiveRe.ReplaceAllString(text, "")
}

func directiveVerdict(label string) domain.Verdict {
	switch strings.ToUpper(label) {
	case "BULLISH":
		return domain.VerdictUp
	case "BEARISH":
		return domain.VerdictDown
	default:
		return domain.VerdictNeutral
	}
}

// Normalize cleans commentary prose for display after citation stripping:
// bold markup markers go, leading ordinal list markers go, and runs of
// two or more newlines collapse into exactly one paragraph break.
// Inline [N] citation markers are intentionally preserved; a downstream
// renderer turns them into links. Idempotent.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = boldMarkerRe.ReplaceAllString(text, "")
	text = ordinalMarkerRe.ReplaceAllString(text, "")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
