// Package digest implements the commentary-to-digest pipeline: citation
// extraction with a prioritized strategy chain, markdown normalization
// and lexicon-based sentiment scoring.
//
// Everything here is a pure transformation of its inputs except the
// optional favicon probe; the pipeline performs no other I/O and is safe
// to call concurrently on independent inputs.
package digest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marketbrief/marketbrief/internal/core/domain"
)

// Assembler orchestrates directive detection, citation extraction and
// content normalization into one immutable Digest.
//
// Sentiment resolution is deliberately not part of assembly: callers
// resolve afterwards against the assembled content, passing the digest's
// own ExplicitSentiment back in. Assemble first, resolve second.
type Assembler struct {
	extractor *Extractor
	logger    *zerolog.Logger
}

func NewAssembler(extractor *Extractor, logger *zerolog.Logger) *Assembler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Assembler{extractor: extractor, logger: logger}
}

// Assemble builds a Digest from raw upstream text and optional structured
// source hints. It never fails: malformed input degrades to a digest with
// empty citations rather than an error, because upstream text is
// untrusted natural-language output whose shape cannot be guaranteed.
func (a *Assembler) Assemble(ctx context.Context, rawText string, hints []domain.SourceHint) domain.Digest {
	explicit, text := ExtractSentimentDirective(rawText)

	citations, stripped := a.extractor.Extract(ctx, text, hints)

	content := Normalize(stripped)

	a.logger.Info().
		Int("citations", len(citations)).
		Int("content_len", len(content)).
		Bool("explicit_sentiment", explicit != nil).
		Msg("digest assembled")

	return domain.Digest{
		ID:                uuid.NewString(),
		Content:           content,
		Citations:         citations,
		ExplicitSentiment: explicit,
		CreatedAt:         time.Now().UTC(),
	}
}
