package digest

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/marketbrief/marketbrief/internal/core/domain"
	"github.com/marketbrief/marketbrief/internal/observability"
)

// FaviconResolver resolves a best-effort favicon URL for a cited page.
// A failed lookup yields an empty string, never an error.
type FaviconResolver interface {
	Resolve(ctx context.Context, pageURL string) string
}

// extractStrategy is one attempt at pulling citations out of raw text.
// The extractor runs strategies in priority order and stops at the first
// one that reports found with a non-empty citation list.
type extractStrategy interface {
	Name() string
	TryExtract(text string, hints []domain.SourceHint) (citations []domain.Citation, stripped string, found bool)
}

// Extractor turns raw commentary text plus optional structured source
// hints into an ordered, de-duplicated citation list and the text with
// source blocks stripped.
type Extractor struct {
	prober     FaviconResolver
	logger     *zerolog.Logger
	strategies []extractStrategy
}

// NewExtractor builds an extractor with the standard strategy chain.
// prober may be nil, in which case favicons stay empty.
func NewExtractor(prober FaviconResolver, logger *zerolog.Logger) *Extractor {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Extractor{
		prober: prober,
		logger: logger,
		strategies: []extractStrategy{
			structuredSourcesStrategy{},
			trailingBlockStrategy{},
			inlineNumberedStrategy{},
			bracketedURLStrategy{},
		},
	}
}

// Extract runs the strategy chain. Zero citations is a valid outcome:
// upstream text is untrusted prose and may reference nothing resolvable.
func (e *Extractor) Extract(ctx context.Context, rawText string, hints []domain.SourceHint) ([]domain.Citation, string) {
	for _, strategy := range e.strategies {
		citations, stripped, found := strategy.TryExtract(rawText, hints)
		if !found || len(citations) == 0 {
			continue
		}

		sort.Slice(citations, func(i, j int) bool { return citations[i].Number < citations[j].Number })

		e.resolveFavicons(ctx, citations)

		observability.CitationsExtracted.WithLabelValues(strategy.Name()).Add(float64(len(citations)))

		e.logger.Debug().
			Str("strategy", strategy.Name()).
			Int("citations", len(citations)).
			Msg("citations extracted")

		return citations, stripped
	}

	if inlineMarkerRe.MatchString(rawText) {
		e.logger.Warn().Msg("inline citation markers present but no resolvable sources found")
	}

	return []domain.Citation{}, rawText
}

// resolveFavicons probes favicons for all citations concurrently so the
// total wait is bounded by the slowest lookup rather than their sum.
func (e *Extractor) resolveFavicons(ctx context.Context, citations []domain.Citation) {
	if e.prober == nil {
		return
	}

	var wg sync.WaitGroup

	for i := range citations {
		if citations[i].URL == "" || citations[i].URL == unknownURLSentinel {
			continue
		}

		wg.Add(1)

		go func(c *domain.Citation) {
			defer wg.Done()

			c.Favicon = e.prober.Resolve(ctx, c.URL)
		}(&citations[i])
	}

	wg.Wait()
}

const unknownURLSentinel = "#"

var (
	inlineMarkerRe = regexp.MustCompile(`\[\d+\]`)

	// sourcesHeadingRe matches a "Sources" heading on its own line,
	// optionally bold-marked, with or without a trailing colon.
	sourcesHeadingRe = regexp.MustCompile(`(?mi)^[ \t]*\*{0,2}sources\*{0,2}:?[ \t]*$`)

	// sourcesLabelRe matches an inline "Sources:" label anywhere in the text.
	sourcesLabelRe = regexp.MustCompile(`(?i)\*{0,2}sources\*{0,2}:`)

	// sourceLineRe matches a block entry: an index token in one of the
	// forms "N.", "[N]" or "N:" immediately followed by an absolute URL.
	sourceLineRe = regexp.MustCompile(`^[ \t]*(?:(\d+)[.:][ \t]*|\[(\d+)\][ \t]*)(https?://\S+)`)

	// inlineEntryRe matches "[N] title and/or domain text" entries inside
	// an inline sources section.
	inlineEntryRe = regexp.MustCompile(`\[(\d+)\][ \t]*([^\[\]\n]+)`)

	// urlWithSchemeRe prefers explicit or protocol-relative URLs.
	urlWithSchemeRe = regexp.MustCompile(`(?:https?:)?//[^\s)\]]+`)

	// domainLikeRe falls back to bare domain text like "coindesk.com/markets".
	domainLikeRe = regexp.MustCompile(`(?i)\b(?:www\.)?[a-z0-9-]+(?:\.[a-z0-9-]+)+(?:/[^\s)\]]*)?`)

	// bracketedURLRe matches inline single-key url objects, tolerating
	// single and double quoting: {url: "https://…"} or {'url': '…'}.
	bracketedURLRe = regexp.MustCompile(`\{\s*['"]?url['"]?\s*:\s*['"]([^'"{}\s]+)['"]\s*\}`)
)

// SourceNameFromURL derives a human-readable source label from a URL:
// hostname minus a leading "www.", reduced to its last two dot-labels.
// The markets.businessinsider.* subdomain alias collapses to
// businessinsider.<tld>. Parse failures return the input unchanged.
// The two-label heuristic mislabels ccTLDs like example.co.uk as "co.uk";
// that behavior is documented and kept.
func SourceNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}

	if labels[0] == "markets" && labels[1] == "businessinsider" {
		return "businessinsider." + labels[len(labels)-1]
	}

	return strings.Join(labels[len(labels)-2:], ".")
}

// structuredSourcesStrategy builds one citation per upstream source hint,
// numbered in input order. It takes unconditional precedence over any
// inline markers or source blocks in the text; a trailing sources block
// is still stripped from the content so it never reaches display.
type structuredSourcesStrategy struct{}

func (structuredSourcesStrategy) Name() string { return "structured_sources" }

func (structuredSourcesStrategy) TryExtract(text string, hints []domain.SourceHint) ([]domain.Citation, string, bool) {
	if len(hints) == 0 {
		return nil, "", false
	}

	citations := make([]domain.Citation, 0, len(hints))

	for i, hint := range hints {
		citationURL := hint.URL
		if citationURL == "" {
			citationURL = unknownURLSentinel
		}

		title := strings.TrimSpace(hint.Title)
		if title == "" {
			title = SourceNameFromURL(citationURL)
		}

		citations = append(citations, domain.Citation{
			Number:  i + 1,
			Title:   title,
			URL:     citationURL,
			IsCited: true,
		})
	}

	return citations, stripTrailingSourcesBlock(text), true
}

// stripTrailingSourcesBlock removes a trailing "Sources" heading and
// everything after it. Used when citations come from structured hints
// and the block would otherwise survive into display prose.
func stripTrailingSourcesBlock(text string) string {
	loc := lastMatchIndex(sourcesHeadingRe, text)
	if loc == nil {
		return text
	}

	return strings.TrimRight(text[:loc[0]], " \t\n")
}

// trailingBlockStrategy parses a trailing "Sources" block whose lines
// carry an index token followed by an absolute URL.
type trailingBlockStrategy struct{}

func (trailingBlockStrategy) Name() string { return "trailing_block" }

func (trailingBlockStrategy) TryExtract(text string, _ []domain.SourceHint) ([]domain.Citation, string, bool) {
	loc := lastMatchIndex(sourcesHeadingRe, text)
	if loc == nil {
		return nil, "", false
	}

	block := text[loc[1]:]

	var citations []domain.Citation

	seen := make(map[int]bool)

	for _, line := range strings.Split(block, "\n") {
		m := sourceLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		number := parseIndexToken(m[1], m[2])
		if number <= 0 || seen[number] {
			continue
		}

		seen[number] = true

		citationURL := trimURLTail(m[3])

		citations = append(citations, domain.Citation{
			Number:  number,
			Title:   SourceNameFromURL(citationURL),
			URL:     citationURL,
			IsCited: true,
		})
	}

	if len(citations) == 0 {
		return nil, "", false
	}

	return citations, strings.TrimRight(text[:loc[0]], " \t\n"), true
}

// inlineNumberedStrategy parses a "Sources:" section whose entries are
// "[N] <title and/or domain text>". The URL is pulled out of the entry
// tail; the remainder becomes the title, defaulting to the derived
// source name when nothing readable is left.
type inlineNumberedStrategy struct{}

func (inlineNumberedStrategy) Name() string { return "inline_numbered" }

func (inlineNumberedStrategy) TryExtract(text string, _ []domain.SourceHint) ([]domain.Citation, string, bool) {
	loc := lastMatchIndex(sourcesLabelRe, text)
	if loc == nil {
		return nil, "", false
	}

	section := text[loc[1]:]

	var citations []domain.Citation

	seen := make(map[int]bool)

	for _, entry := range inlineEntryRe.FindAllStringSubmatch(section, -1) {
		number, err := strconv.Atoi(entry[1])
		if err != nil || number <= 0 || seen[number] {
			continue
		}

		citationURL, title := splitEntryURL(entry[2])
		if citationURL == "" {
			continue
		}

		seen[number] = true

		if title == "" {
			title = SourceNameFromURL(citationURL)
		}

		citations = append(citations, domain.Citation{
			Number:  number,
			Title:   title,
			URL:     citationURL,
			IsCited: true,
		})
	}

	if len(citations) == 0 {
		return nil, "", false
	}

	return citations, strings.TrimRight(text[:loc[0]], " \t\n"), true
}

// splitEntryURL pulls a URL-looking substring out of an inline entry and
// returns it alongside the leftover text with delimiters trimmed.
// Protocol-relative and bare-domain matches get an https:// scheme.
func splitEntryURL(entry string) (string, string) {
	entry = strings.TrimSpace(entry)

	match := urlWithSchemeRe.FindString(entry)
	bare := false

	if match == "" {
		match = domainLikeRe.FindString(entry)
		bare = match != ""
	}

	if match == "" {
		return "", ""
	}

	remainder := strings.Replace(entry, match, "", 1)
	remainder = strings.Trim(remainder, " \t-–—:;,.()|")

	match = trimURLTail(match)

	switch {
	case strings.HasPrefix(match, "//"):
		match = "https:" + match
	case bare:
		match = "https://" + match
	}

	return match, remainder
}

// bracketedURLStrategy scans the whole text for inline {url: "…"} objects,
// numbering them sequentially in encounter order and stripping each
// occurrence from the content. Titles always derive from the domain.
type bracketedURLStrategy struct{}

func (bracketedURLStrategy) Name() string { return "bracketed_url" }

func (bracketedURLStrategy) TryExtract(text string, _ []domain.SourceHint) ([]domain.Citation, string, bool) {
	matches := bracketedURLRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, "", false
	}

	var citations []domain.Citation

	seen := make(map[string]bool)

	for _, m := range matches {
		citationURL := trimURLTail(m[1])
		if citationURL == "" || seen[citationURL] {
			continue
		}

		seen[citationURL] = true

		citations = append(citations, domain.Citation{
			Number:  len(citations) + 1,
			Title:   SourceNameFromURL(citationURL),
			URL:     citationURL,
			IsCited: true,
		})
	}

	if len(citations) == 0 {
		return nil, "", false
	}

	return citations, bracketedURLRe.ReplaceAllString(text, ""), true
}

func parseIndexToken(dotted, bracketed string) int {
	token := dotted
	if token == "" {
		token = bracketed
	}

	number, err := strconv.Atoi(token)
	if err != nil {
		return 0
	}

	return number
}

// trimURLTail drops punctuation that prose tends to glue onto URLs.
func trimURLTail(rawURL string) string {
	return strings.TrimRight(rawURL, ".,;:)]}'\"")
}

func lastMatchIndex(re *regexp.Regexp, text string) []int {
	all := re.FindAllStringIndex(text, -1)
	if len(all) == 0 {
		return nil
	}

	return all[len(all)-1]
}
