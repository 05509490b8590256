// Package enrich backfills human-readable citation titles after digest
// assembly. It only touches citations whose title is a bare derived
// domain; a fetch or parse failure leaves the citation as assembled.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/marketbrief/marketbrief/internal/core/domain"
	"github.com/marketbrief/marketbrief/internal/digest"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 2 * 1024 * 1024
	maxTitleLen    = 120
	fetchBurst     = 4
	userAgent      = "marketbrief/1.0 (+https://github.com/marketbrief/marketbrief)"
)

type TitleEnricher struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func NewTitleEnricher(rps float64, timeout time.Duration, logger *zerolog.Logger) *TitleEnricher {
	if rps <= 0 {
		rps = 2
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &TitleEnricher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), fetchBurst),
		logger:  logger,
	}
}

// Enrich replaces derived-domain titles with the cited page's real title
// where one can be fetched. Best-effort: every failure is logged and
// skipped, the input order and numbering never change.
func (e *TitleEnricher) Enrich(ctx context.Context, citations []domain.Citation) []domain.Citation {
	for i := range citations {
		c := &citations[i]

		if !needsTitle(c) {
			continue
		}

		title, err := e.fetchTitle(ctx, c.URL)
		if err != nil {
			e.logger.Debug().Err(err).Str("url", c.URL).Msg("title enrichment skipped")

			continue
		}

		if title != "" {
			c.Title = title
		}
	}

	return citations
}

// needsTitle reports whether the citation still carries the fallback
// title derived from its URL.
func needsTitle(c *domain.Citation) bool {
	if c.URL == "" || c.URL == "#" {
		return false
	}

	return c.Title == "" || c.Title == digest.SourceNameFromURL(c.URL)
}

func (e *TitleEnricher) fetchTitle(ctx context.Context, pageURL string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return extractTitle(body, pageURL), nil
}

// extractTitle prefers the readability title and falls back to the
// document's <title> / og:title meta tags.
func extractTitle(htmlBytes []byte, pageURL string) string {
	u, _ := url.Parse(pageURL)

	if article, err := readability.FromReader(bytes.NewReader(htmlBytes), u); err == nil {
		if title := cleanTitle(article.Title); title != "" {
			return title
		}
	}

	return cleanTitle(titleFromMetaTags(htmlBytes))
}

func titleFromMetaTags(htmlBytes []byte) string {
	doc, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return ""
	}

	var docTitle, ogTitle string

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if docTitle == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					docTitle = n.FirstChild.Data
				}
			case "meta":
				var property, content string

				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "property", "name":
						property = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}

				if property == "og:title" && ogTitle == "" {
					ogTitle = content
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	if ogTitle != "" {
		return ogTitle
	}

	return docTitle
}

func cleanTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")

	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}

	return strings.TrimSpace(title)
}
