package digest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrief/marketbrief/internal/core/domain"
)

type fakeProber struct{}

func (fakeProber) Resolve(_ context.Context, pageURL string) string {
	return pageURL + "/favicon.ico"
}

func TestSourceNameFromURL(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://www.coindesk.com/markets/2024", "coindesk.com"},
		{"https://coindesk.com/btc-news", "coindesk.com"},
		{"https://www.markets.businessinsider.com/a", "businessinsider.com"},
		{"https://markets.businessinsider.de/news", "businessinsider.de"},
		// Documented limitation of the two-label heuristic, kept on purpose.
		{"https://sub.example.co.uk/x", "co.uk"},
		{"https://localhost/path", "localhost"},
		{"not a url at all", "not a url at all"},
		{"coindesk.com", "coindesk.com"},
	}

	for _, tt := range tests {
		t.Run(tt.rawURL, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceNameFromURL(tt.rawURL))
		})
	}
}

func TestExtractStructuredSourcesTakePrecedence(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	text := "Markets moved [1][2].\n\nSources:\n1. https://ignored.example.com/a\n2. https://ignored.example.com/b\n3. https://ignored.example.com/c"
	hints := []domain.SourceHint{
		{URL: "https://coindesk.com/a", Title: "CoinDesk"},
		{URL: "https://reuters.com/b"},
	}

	citations, content := extractor.Extract(context.Background(), text, hints)

	require.Len(t, citations, 2)
	assert.Equal(t, 1, citations[0].Number)
	assert.Equal(t, "CoinDesk", citations[0].Title)
	assert.Equal(t, "https://coindesk.com/a", citations[0].URL)
	assert.True(t, citations[0].IsCited)

	// Missing title falls back to the derived source name.
	assert.Equal(t, 2, citations[1].Number)
	assert.Equal(t, "reuters.com", citations[1].Title)

	// The trailing block is stripped even though it was not parsed.
	assert.NotContains(t, content, "Sources:")
	assert.Contains(t, content, "Markets moved [1][2].")
}

func TestExtractStructuredSourcesEmptyURLUsesSentinel(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	citations, _ := extractor.Extract(context.Background(), "text", []domain.SourceHint{{Title: "Somewhere"}})

	require.Len(t, citations, 1)
	assert.Equal(t, "#", citations[0].URL)
	assert.Equal(t, "Somewhere", citations[0].Title)
}

func TestExtractTrailingSourcesBlock(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	text := "BTC rose [1] while ETH fell [2].\n\nSources:\n1. https://coindesk.com/btc-news\n[2] https://reuters.com/eth-news\n3: https://bloomberg.com/markets."

	citations, content := extractor.Extract(context.Background(), text, nil)

	require.Len(t, citations, 3)
	assert.Equal(t, []domain.Citation{
		{Number: 1, Title: "coindesk.com", URL: "https://coindesk.com/btc-news", IsCited: true},
		{Number: 2, Title: "reuters.com", URL: "https://reuters.com/eth-news", IsCited: true},
		{Number: 3, Title: "bloomberg.com", URL: "https://bloomberg.com/markets", IsCited: true},
	}, citations)

	assert.Equal(t, "BTC rose [1] while ETH fell [2].", content)
}

func TestExtractTrailingBlockAcceptsBoldHeading(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	text := "Gold steady [1].\n\n**Sources**\n1. https://kitco.com/gold"

	citations, content := extractor.Extract(context.Background(), text, nil)

	require.Len(t, citations, 1)
	assert.Equal(t, "https://kitco.com/gold", citations[0].URL)
	assert.NotContains(t, content, "Sources")
}

func TestExtractTrailingBlockDedupsAndSortsByNumber(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	text := "text\n\nSources:\n3. https://c.example.com/x\n1. https://a.example.com/x\n1. https://dup.example.com/x\n2. https://b.example.com/x"

	citations, _ := extractor.Extract(context.Background(), text, nil)

	require.Len(t, citations, 3)

	for i := 0; i < len(citations)-1; i++ {
		assert.Less(t, citations[i].Number, citations[i+1].Number)
	}

	// First occurrence of a duplicated number wins.
	assert.Equal(t, "https://a.example.com/x", citations[0].URL)
}

func TestExtractInlineNumberedSourcesWithTitles(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	text := "Stocks slid [1][2]. Sources: [1] CoinDesk - coindesk.com/markets [2] //www.reuters.com/business"

	citations, content := extractor.Extract(context.Background(), text, nil)

	require.Len(t, citations, 2)

	assert.Equal(t, "CoinDesk", citations[0].Title)
	assert.Equal(t, "https://coindesk.com/markets", citations[0].URL)

	// Protocol-relative match gets a scheme; empty title derives from domain.
	assert.Equal(t, "https://www.reuters.com/business", citations[1].URL)
	assert.Equal(t, "reuters.com", citations[1].Title)

	assert.Equal(t, "Stocks slid [1][2].", content)
}

func TestExtractBracketedURLObjects(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	text := `Oil spiked {url: "https://bloomberg.com/oil"} on supply fears {'url': 'https://reuters.com/energy'} today.`

	citations, content := extractor.Extract(context.Background(), text, nil)

	require.Len(t, citations, 2)
	assert.Equal(t, 1, citations[0].Number)
	assert.Equal(t, "https://bloomberg.com/oil", citations[0].URL)
	assert.Equal(t, "bloomberg.com", citations[0].Title)
	assert.Equal(t, 2, citations[1].Number)
	assert.Equal(t, "https://reuters.com/energy", citations[1].URL)

	assert.Equal(t, "Oil spiked  on supply fears  today.", content)
}

func TestExtractBracketedURLObjectsDedupByURL(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	text := `a {url: "https://x.example.com/p"} b {url: "https://x.example.com/p"} c {url: "https://y.example.com/q"}`

	citations, _ := extractor.Extract(context.Background(), text, nil)

	require.Len(t, citations, 2)
	assert.Equal(t, 1, citations[0].Number)
	assert.Equal(t, 2, citations[1].Number)
	assert.Equal(t, "https://y.example.com/q", citations[1].URL)
}

func TestExtractNoSourcesYieldsEmptyList(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	text := "Plain commentary with a dangling marker [1] but nothing to resolve."

	citations, content := extractor.Extract(context.Background(), text, nil)

	assert.NotNil(t, citations)
	assert.Empty(t, citations)
	assert.Equal(t, text, content)
}

func TestExtractEmptyText(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	citations, content := extractor.Extract(context.Background(), "", nil)

	assert.Empty(t, citations)
	assert.Empty(t, content)
}

func TestExtractResolvesFaviconsConcurrently(t *testing.T) {
	extractor := NewExtractor(fakeProber{}, nil)

	text := "x\n\nSources:\n1. https://coindesk.com/a\n2. https://reuters.com/b"

	citations, _ := extractor.Extract(context.Background(), text, nil)

	require.Len(t, citations, 2)
	assert.Equal(t, "https://coindesk.com/a/favicon.ico", citations[0].Favicon)
	assert.Equal(t, "https://reuters.com/b/favicon.ico", citations[1].Favicon)
}

func TestExtractStrategyChainFallsThrough(t *testing.T) {
	extractor := NewExtractor(nil, nil)

	// A sources heading with no parsable URL lines must not satisfy
	// strategy 2; the bracketed object further down still resolves.
	text := "Commentary {url: \"https://coindesk.com/x\"}\n\nSources:\nnone listed"

	citations, _ := extractor.Extract(context.Background(), text, nil)

	require.Len(t, citations, 1)
	assert.Equal(t, "https://coindesk.com/x", citations[0].URL)
}
