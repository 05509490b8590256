// Package app wires the service together and owns the refresh cycle:
// fetch context headlines, generate commentary, assemble the digest,
// resolve sentiment, persist, cache and deliver.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbrief/marketbrief/internal/cache"
	"github.com/marketbrief/marketbrief/internal/config"
	"github.com/marketbrief/marketbrief/internal/core/domain"
	"github.com/marketbrief/marketbrief/internal/digest"
	"github.com/marketbrief/marketbrief/internal/enrich"
	"github.com/marketbrief/marketbrief/internal/ingest"
	"github.com/marketbrief/marketbrief/internal/llm"
	"github.com/marketbrief/marketbrief/internal/notify"
	"github.com/marketbrief/marketbrief/internal/observability"
	"github.com/marketbrief/marketbrief/internal/server"
	db "github.com/marketbrief/marketbrief/internal/storage"
	"github.com/marketbrief/marketbrief/internal/worker"
)

type App struct {
	cfg      *config.Config
	database *db.DB
	cache    *cache.Cache
	logger   *zerolog.Logger

	llmClient llm.Client
	fetcher   *ingest.Fetcher
	assembler *digest.Assembler
	resolver  *digest.Resolver
	enricher  *enrich.TitleEnricher
	notifier  *notify.TelegramNotifier
}

func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) (*App, error) {
	app := &App{
		cfg:       cfg,
		database:  database,
		logger:    logger,
		llmClient: llm.New(cfg, logger),
		fetcher:   ingest.NewFetcher(cfg.ContextFeeds, logger),
		resolver:  digest.NewResolver(digest.NewScanner(digest.MarketLexicon()), logger),
	}

	var prober digest.FaviconResolver
	if cfg.FaviconEnabled {
		prober = digest.NewProber(cfg.FaviconRPS, cfg.FaviconTimeout, logger)
	}

	app.assembler = digest.NewAssembler(digest.NewExtractor(prober, logger), logger)

	if cfg.TitleEnrichmentEnabled {
		app.enricher = enrich.NewTitleEnricher(cfg.WebFetchRPS, cfg.WebFetchTimeout, logger)
	}

	if cfg.RedisURL != "" {
		digestCache, err := cache.New(cfg.RedisURL, cfg.CacheTTL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}

		app.cache = digestCache
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		notifier, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			return nil, fmt.Errorf("connect telegram: %w", err)
		}

		app.notifier = notifier
	}

	return app, nil
}

// RunAPI serves the HTTP API until ctx is canceled.
func (a *App) RunAPI(ctx context.Context) error {
	var digestCache server.DigestCache
	if a.cache != nil {
		digestCache = a.cache
	}

	srv := server.New(a.database, digestCache, a.database.Pool, a.cfg.HTTPPort, a.logger)

	return srv.Start(ctx)
}

// RunScheduler refreshes the digest on the configured interval.
func (a *App) RunScheduler(ctx context.Context) error {
	return worker.Run(ctx, worker.Config{
		Name:       "digest-refresh",
		Interval:   a.cfg.RefreshInterval,
		RunOnStart: true,
		OnTick:     func(ctx context.Context) { _ = a.refresh(ctx) },
		Logger:     a.logger,
	})
}

// RunOnce performs a single refresh and returns its error.
func (a *App) RunOnce(ctx context.Context) error {
	return a.refresh(ctx)
}

func (a *App) refresh(ctx context.Context) error {
	start := time.Now()

	headlines := a.fetcher.FetchHeadlines(ctx, a.cfg.ContextMaxItems)

	commentary, err := a.llmClient.GenerateCommentary(ctx, llm.CommentaryInput{
		Headlines: ingest.Titles(headlines),
	})
	if err != nil {
		observability.DigestsBuilt.WithLabelValues("error").Inc()
		a.logger.Error().Err(err).Msg("commentary generation failed")

		return fmt.Errorf("generate commentary: %w", err)
	}

	assembled := a.assembler.Assemble(ctx, commentary.Text, commentary.Sources)

	if a.enricher != nil {
		assembled.Citations = a.enricher.Enrich(ctx, assembled.Citations)
	}

	assembled.Sentiment, assembled.Evidence = a.resolver.Resolve(assembled.Content, assembled.ExplicitSentiment)

	observability.SentimentVerdicts.WithLabelValues(string(assembled.Sentiment), string(assembled.Evidence.Source)).Inc()

	if err := a.database.SaveDigest(ctx, assembled, commentary.Model); err != nil {
		observability.DigestsBuilt.WithLabelValues("error").Inc()
		a.logger.Error().Err(err).Msg("failed to persist digest")

		return fmt.Errorf("save digest: %w", err)
	}

	if a.cache != nil {
		a.cache.SetLatest(ctx, &db.StoredDigest{Digest: assembled, Model: commentary.Model})
	}

	a.deliver(&assembled)

	observability.DigestsBuilt.WithLabelValues("ok").Inc()
	observability.DigestAge.Set(0)

	a.logger.Info().
		Str("digest_id", assembled.ID).
		Str("sentiment", string(assembled.Sentiment)).
		Int("citations", len(assembled.Citations)).
		Dur("took", time.Since(start)).
		Msg("digest refreshed")

	return nil
}

// deliver pushes the digest to the optional notification channel.
// Failures are logged only; the digest is already persisted.
func (a *App) deliver(assembled *domain.Digest) {
	if a.notifier == nil {
		return
	}

	if err := a.notifier.NotifyDigest(assembled); err != nil {
		a.logger.Warn().Err(err).Msg("failed to deliver digest")
	}
}

// Close releases external connections.
func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close cache")
		}
	}
}
