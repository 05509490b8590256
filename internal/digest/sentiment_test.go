package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketbrief/marketbrief/internal/core/domain"
)

func newTestResolver() *Resolver {
	return NewResolver(NewScanner(testLexicon()), nil)
}

// scoredText builds a text with exact lexicon scores against testLexicon:
// each "good" adds 1 positive, each "bad" adds 1 negative.
func scoredText(positive, negative int) string {
	return strings.TrimSpace(strings.Repeat("good ", positive) + strings.Repeat("bad ", negative))
}

func TestResolveExplicitHintAlwaysWins(t *testing.T) {
	resolver := newTestResolver()

	hint := domain.VerdictDown

	// Content is lexically very positive; the hint still wins.
	verdict, evidence := resolver.Resolve(scoredText(10, 0), &hint)

	assert.Equal(t, domain.VerdictDown, verdict)
	assert.Equal(t, domain.EvidenceSourceAPI, evidence.Source)

	// Evidence stays populated for diagnostics even when discarded.
	assert.Equal(t, 10, evidence.PositiveScore)
}

func TestResolveExplicitHintForEveryVerdict(t *testing.T) {
	resolver := newTestResolver()

	for _, hint := range []domain.Verdict{domain.VerdictUp, domain.VerdictDown, domain.VerdictNeutral} {
		h := hint

		verdict, _ := resolver.Resolve("irrelevant content", &h)

		assert.Equal(t, hint, verdict)
	}
}

func TestResolveNeutralBiasThreshold(t *testing.T) {
	tests := []struct {
		name     string
		positive int
		negative int
		want     domain.Verdict
	}{
		{"tied scores stay neutral", 3, 3, domain.VerdictNeutral},
		{"margin exceeded goes up", 5, 3, domain.VerdictUp},
		{"negative dominates goes down", 3, 5, domain.VerdictDown},
		{"margin not exceeded stays neutral", 4, 3, domain.VerdictNeutral},
		{"one behind stays neutral", 3, 4, domain.VerdictNeutral},
		{"empty content stays neutral", 0, 0, domain.VerdictNeutral},
	}

	resolver := newTestResolver()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, evidence := resolver.Resolve(scoredText(tt.positive, tt.negative), nil)

			assert.Equal(t, tt.want, verdict)
			assert.Equal(t, tt.positive, evidence.PositiveScore)
			assert.Equal(t, tt.negative, evidence.NegativeScore)
			assert.Equal(t, domain.EvidenceSourceCalculated, evidence.Source)
		})
	}
}
