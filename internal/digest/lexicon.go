package digest

import (
	"regexp"

	"github.com/marketbrief/marketbrief/internal/core/domain"
)

const (
	// strongRuleWeight is the multiplier for market-regime phrases.
	// Tunable; kept at 3 for behavioral compatibility with earlier runs.
	strongRuleWeight = 3

	maxSamplesPerCategory = 2
	maxSamplesPerPolarity = 8
)

// Rule is one lexicon entry: a case-insensitive pattern contributing
// Weight per match to its polarity's score.
type Rule struct {
	Category string
	Pattern  *regexp.Regexp
	Weight   int
}

// Lexicon is the immutable rule configuration for a Scanner. Alternate
// lexicons can be injected for testing or localization.
type Lexicon struct {
	Positive []Rule
	Negative []Rule
}

// ScanResult carries the weighted indicator counts and capped evidence
// samples produced by one scan.
type ScanResult struct {
	PositiveScore   int
	NegativeScore   int
	PositiveSamples []domain.EvidenceSample
	NegativeSamples []domain.EvidenceSample
}

// Scanner is a stateless pattern matcher over a fixed lexicon.
// Safe for concurrent use.
type Scanner struct {
	lexicon Lexicon
}

func NewScanner(lexicon Lexicon) *Scanner {
	return &Scanner{lexicon: lexicon}
}

// Scan tallies weighted positive and negative indicators in text.
// It never fails; empty text yields an all-zero result. Rules are not
// mutually exclusive: the same substring can satisfy several rules and
// is counted once per rule match.
func (s *Scanner) Scan(text string) ScanResult {
	result := ScanResult{}
	if text == "" {
		return result
	}

	result.PositiveScore, result.PositiveSamples = scanPolarity(text, s.lexicon.Positive)
	result.NegativeScore, result.NegativeSamples = scanPolarity(text, s.lexicon.Negative)

	return result
}

func scanPolarity(text string, rules []Rule) (int, []domain.EvidenceSample) {
	var (
		score   int
		samples []domain.EvidenceSample
	)

	perCategory := make(map[string]int)

	for _, rule := range rules {
		matches := rule.Pattern.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}

		weight := rule.Weight
		if weight <= 0 {
			weight = 1
		}

		score += weight * len(matches)

		for _, match := range matches {
			if len(samples) >= maxSamplesPerPolarity {
				break
			}

			if perCategory[rule.Category] >= maxSamplesPerCategory {
				break
			}

			perCategory[rule.Category]++

			samples = append(samples, domain.EvidenceSample{Category: rule.Category, Match: match})
		}
	}

	return score, samples
}

func rule(category, pattern string) Rule {
	return Rule{Category: category, Pattern: regexp.MustCompile(`(?i)` + pattern), Weight: 1}
}

func strongRule(category, pattern string) Rule {
	return Rule{Category: category, Pattern: regexp.MustCompile(`(?i)` + pattern), Weight: strongRuleWeight}
}

// MarketLexicon returns the default English market-commentary lexicon.
// Base rules count single indicator words; strong rules match narrower
// market-regime phrases and carry extra weight.
func MarketLexicon() Lexicon {
	return Lexicon{
		Positive: []Rule{
			rule("gain", `\b(gain|gains|gained|gaining)\b`),
			rule("rise", `\b(rise|rises|risen|rose|rising)\b`),
			rule("surge", `\b(surge|surges|surged|surging)\b`),
			rule("rally", `\b(rally|rallies|rallied|rallying)\b`),
			rule("climb", `\b(climb|climbs|climbed|climbing)\b`),
			rule("rebound", `\b(rebound|rebounds|rebounded|recovery|recovering)\b`),
			rule("bullish", `\bbullish\b`),
			rule("outperform", `\b(outperform|outperforms|outperformed|outperforming)\b`),
			rule("high", `\b(record|multi-year|52-week)\s+highs?\b`),
			rule("optimism", `\b(optimism|optimistic|upbeat|confidence)\b`),
			rule("growth", `\b(growth|expansion|accelerat(?:e|es|ed|ing))\b`),
			rule("inflow", `\b(inflow|inflows|accumulation)\b`),
			strongRule("bull market", `\bbull\s+market\b`),
			strongRule("strong buy", `\bstrong\s+buy\b|\bbuy\s+signal\b`),
			strongRule("all-time high", `\ball[- ]time\s+high\b`),
			strongRule("sharp rally", `\b(sharp|massive|major)\s+(rally|surge|breakout)\b`),
		},
		Negative: []Rule{
			rule("loss", `\b(loss|losses|lost|losing)\b`),
			rule("fall", `\b(fall|falls|fell|fallen|falling)\b`),
			rule("drop", `\b(drop|drops|dropped|dropping)\b`),
			rule("decline", `\b(decline|declines|declined|declining)\b`),
			rule("slump", `\b(slump|slumps|slumped|plunge|plunges|plunged|plunging)\b`),
			rule("selloff", `\b(sell-?off|liquidation|capitulation)\b`),
			rule("bearish", `\bbearish\b`),
			rule("underperform", `\b(underperform|underperforms|underperformed|underperforming)\b`),
			rule("low", `\b(record|multi-year|52-week)\s+lows?\b`),
			rule("fear", `\b(fear|fears|anxiety|uncertainty|panic)\b`),
			rule("pressure", `\b(pressure|headwinds|weakness|weak)\b`),
			rule("outflow", `\b(outflow|outflows|redemptions)\b`),
			strongRule("bear market", `\bbear\s+market\b`),
			strongRule("strong sell", `\bstrong\s+sell\b|\bsell\s+signal\b`),
			strongRule("market crash", `\b(market\s+crash|flash\s+crash)\b`),
			strongRule("sharp drop", `\b(sharp|massive|major)\s+(drop|decline|correction|plunge)\b`),
		},
	}
}
