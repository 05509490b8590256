// Package domain holds the entities shared between the digest pipeline,
// storage, cache and delivery layers.
package domain

import "time"

// Verdict is the 3-way market sentiment classification shown to consumers.
type Verdict string

const (
	VerdictUp      Verdict = "up"
	VerdictDown    Verdict = "down"
	VerdictNeutral Verdict = "neutral"
)

// EvidenceSource tells where a sentiment verdict came from.
type EvidenceSource string

const (
	// EvidenceSourceAPI means the upstream commentary carried an explicit
	// sentiment directive and the verdict was taken from it verbatim.
	EvidenceSourceAPI EvidenceSource = "api"
	// EvidenceSourceCalculated means the verdict was computed from the
	// lexicon scan of the digest content.
	EvidenceSourceCalculated EvidenceSource = "calculated"
)

// Citation is a numbered reference to an external source backing a claim
// in the digest text. Citations are created by the extractor and never
// mutated afterwards, except for best-effort title/favicon backfill.
type Citation struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	IsCited bool   `json:"isCited"`
	Favicon string `json:"favicon"`
}

// SourceHint is a structured citation hint supplied by the upstream
// commentary provider alongside the raw text. Title may be empty.
type SourceHint struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// EvidenceSample is one matched lexicon fragment kept for diagnostics.
type EvidenceSample struct {
	Category string `json:"category"`
	Match    string `json:"match"`
}

// Evidence is the diagnostic breakdown behind a sentiment verdict.
// It never affects correctness of other components.
type Evidence struct {
	PositiveScore   int              `json:"positiveScore"`
	NegativeScore   int              `json:"negativeScore"`
	PositiveSamples []EvidenceSample `json:"positiveSamples"`
	NegativeSamples []EvidenceSample `json:"negativeSamples"`
	Source          EvidenceSource   `json:"source"`
}

// Digest is the structured output of one extraction pass: display-ready
// prose with inline [N] markers preserved, the ordered citation list and
// the optional explicit sentiment carried by the upstream text.
// A digest is immutable once assembled; it is only superseded by a newer one.
type Digest struct {
	ID                string     `json:"id"`
	Content           string     `json:"content"`
	Citations         []Citation `json:"citations"`
	ExplicitSentiment *Verdict   `json:"explicitSentiment,omitempty"`
	Sentiment         Verdict    `json:"sentiment"`
	Evidence          Evidence   `json:"evidence"`
	CreatedAt         time.Time  `json:"createdAt"`
}
