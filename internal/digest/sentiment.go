package digest

import (
	"github.com/rs/zerolog"

	"github.com/marketbrief/marketbrief/internal/core/domain"
)

// neutralBiasMargin is the score gap a polarity must exceed before the
// computed verdict leaves neutral. The margin damps jitter on close calls.
// Tunable; kept at 1 for behavioral compatibility.
const neutralBiasMargin = 1

// Resolver combines an optional explicit upstream sentiment label with
// the lexicon scan to produce one final verdict plus diagnostics.
type Resolver struct {
	scanner *Scanner
	logger  *zerolog.Logger
}

func NewResolver(scanner *Scanner, logger *zerolog.Logger) *Resolver {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Resolver{scanner: scanner, logger: logger}
}

// Resolve returns the sentiment verdict for content. An explicit hint
// always wins; the scanner still runs so the evidence diagnostic is
// populated either way, but its tally is discarded when a hint exists.
func (r *Resolver) Resolve(content string, explicitHint *domain.Verdict) (domain.Verdict, domain.Evidence) {
	scan := r.scanner.Scan(content)

	evidence := domain.Evidence{
		PositiveScore:   scan.PositiveScore,
		NegativeScore:   scan.NegativeScore,
		PositiveSamples: scan.PositiveSamples,
		NegativeSamples: scan.NegativeSamples,
		Source:          domain.EvidenceSourceCalculated,
	}

	if explicitHint != nil {
		evidence.Source = domain.EvidenceSourceAPI

		r.logger.Debug().
			Str("verdict", string(*explicitHint)).
			Int("positive_score", scan.PositiveScore).
			Int("negative_score", scan.NegativeScore).
			Msg("sentiment taken from explicit directive")

		return *explicitHint, evidence
	}

	verdict := verdictFromScores(scan.PositiveScore, scan.NegativeScore)

	r.logger.Debug().
		Str("verdict", string(verdict)).
		Int("positive_score", scan.PositiveScore).
		Int("negative_score", scan.NegativeScore).
		Msg("sentiment calculated from lexicon scan")

	return verdict, evidence
}

func verdictFromScores(positive, negative int) domain.Verdict {
	if positive > negative+neutralBiasMargin {
		return domain.VerdictUp
	}

	if negative > positive+neutralBiasMargin {
		return domain.VerdictDown
	}

	return domain.VerdictNeutral
}
