package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrief/marketbrief/internal/core/domain"
	"github.com/marketbrief/marketbrief/internal/digest"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
  <title>Bitcoin Tops 100k - Market News</title>
  <meta property="og:title" content="Bitcoin Tops $100,000 for the First Time">
</head>
<body><article><p>Bitcoin crossed the symbolic threshold on heavy volume.</p></article></body>
</html>`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testPage)
	}))
	t.Cleanup(server.Close)

	return server
}

func TestEnrichReplacesDerivedTitles(t *testing.T) {
	server := testServer(t)
	enricher := NewTitleEnricher(100, time.Second, nil)

	pageURL := server.URL + "/article"
	citations := []domain.Citation{
		{Number: 1, Title: digest.SourceNameFromURL(pageURL), URL: pageURL, IsCited: true},
	}

	enriched := enricher.Enrich(context.Background(), citations)

	require.Len(t, enriched, 1)
	assert.NotEqual(t, digest.SourceNameFromURL(pageURL), enriched[0].Title)
	assert.Contains(t, enriched[0].Title, "Bitcoin")
}

func TestEnrichKeepsProvidedTitles(t *testing.T) {
	server := testServer(t)
	enricher := NewTitleEnricher(100, time.Second, nil)

	citations := []domain.Citation{
		{Number: 1, Title: "Hand-written title", URL: server.URL + "/article", IsCited: true},
	}

	enriched := enricher.Enrich(context.Background(), citations)

	assert.Equal(t, "Hand-written title", enriched[0].Title)
}

func TestEnrichSkipsSentinelURLs(t *testing.T) {
	enricher := NewTitleEnricher(100, time.Second, nil)

	citations := []domain.Citation{
		{Number: 1, Title: "untouchable", URL: "#", IsCited: true},
	}

	enriched := enricher.Enrich(context.Background(), citations)

	assert.Equal(t, "untouchable", enriched[0].Title)
}

func TestEnrichFetchFailureLeavesCitationUntouched(t *testing.T) {
	enricher := NewTitleEnricher(100, 200*time.Millisecond, nil)

	fallback := digest.SourceNameFromURL("http://127.0.0.1:1/article")
	citations := []domain.Citation{
		{Number: 1, Title: fallback, URL: "http://127.0.0.1:1/article", IsCited: true},
	}

	enriched := enricher.Enrich(context.Background(), citations)

	assert.Equal(t, fallback, enriched[0].Title)
}

func TestExtractTitlePrefersReadableTitle(t *testing.T) {
	title := extractTitle([]byte(testPage), "http://example.com/article")

	assert.NotEmpty(t, title)
	assert.Contains(t, title, "Bitcoin")
}

func TestTitleFromMetaTagsPrefersOGTitle(t *testing.T) {
	title := titleFromMetaTags([]byte(testPage))

	assert.Equal(t, "Bitcoin Tops $100,000 for the First Time", title)
}
