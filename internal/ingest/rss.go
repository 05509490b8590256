// Package ingest fetches recent market headlines from configured RSS
// feeds. Headlines only ground the commentary prompt; a feed failure
// degrades to fewer headlines, never to a refresh failure.
package ingest

import (
	"context"
	"sort"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/marketbrief/marketbrief/internal/observability"
)

const defaultMaxItems = 12

// Headline is one feed item reduced to what the prompt needs.
type Headline struct {
	Title       string
	Link        string
	PublishedAt time.Time
}

type Fetcher struct {
	parser *gofeed.Parser
	feeds  []string
	logger *zerolog.Logger
}

func NewFetcher(feeds []string, logger *zerolog.Logger) *Fetcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Fetcher{
		parser: gofeed.NewParser(),
		feeds:  feeds,
		logger: logger,
	}
}

// FetchHeadlines pulls items from every configured feed, newest first,
// capped at maxItems across all feeds.
func (f *Fetcher) FetchHeadlines(ctx context.Context, maxItems int) []Headline {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}

	var headlines []Headline

	for _, feedURL := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			observability.HeadlinesFetched.WithLabelValues("error").Inc()
			f.logger.Warn().Err(err).Str("feed", feedURL).Msg("failed to fetch feed")

			continue
		}

		for _, item := range feed.Items {
			headlines = append(headlines, Headline{
				Title:       item.Title,
				Link:        item.Link,
				PublishedAt: itemPublishedAt(item),
			})
		}

		observability.HeadlinesFetched.WithLabelValues("ok").Add(float64(len(feed.Items)))
	}

	sort.SliceStable(headlines, func(i, j int) bool {
		return headlines[i].PublishedAt.After(headlines[j].PublishedAt)
	})

	if len(headlines) > maxItems {
		headlines = headlines[:maxItems]
	}

	return headlines
}

// itemPublishedAt prefers the parsed feed timestamp and falls back to a
// lenient parse of the raw date string; feeds disagree wildly on formats.
func itemPublishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}

	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}

	if item.Published != "" {
		if ts, err := dateparse.ParseAny(item.Published); err == nil {
			return ts
		}
	}

	return time.Time{}
}

// Titles flattens headlines into prompt-ready strings.
func Titles(headlines []Headline) []string {
	titles := make([]string, 0, len(headlines))

	for _, h := range headlines {
		titles = append(titles, h.Title)
	}

	return titles
}
