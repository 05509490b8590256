package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DigestsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketbrief_digests_built_total",
		Help: "The total number of digest refresh attempts",
	}, []string{"status"})

	CitationsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketbrief_citations_extracted_total",
		Help: "The total number of citations extracted, by strategy",
	}, []string{"strategy"})

	SentimentVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketbrief_sentiment_verdicts_total",
		Help: "The total number of sentiment verdicts, by verdict and source",
	}, []string{"verdict", "source"})

	FaviconLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketbrief_favicon_lookups_total",
		Help: "The total number of favicon probes, by outcome",
	}, []string{"status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketbrief_llm_request_duration_seconds",
		Help:    "Duration of commentary generation requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	HeadlinesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketbrief_headlines_fetched_total",
		Help: "The total number of context headlines fetched, by feed outcome",
	}, []string{"status"})

	DigestAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketbrief_digest_age_seconds",
		Help: "Age in seconds of the most recently stored digest",
	})
)
