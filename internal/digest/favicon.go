package digest

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/marketbrief/marketbrief/internal/observability"
)

const (
	defaultProbeTimeout = 5 * time.Second
	defaultProbeRPS     = 4
	probeBurst          = 8
	faviconPath         = "/favicon.ico"
)

// Prober resolves favicon URLs by probing the origin's /favicon.ico.
// Lookups are best-effort: any failure degrades to an empty string and
// never aborts extraction.
type Prober struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func NewProber(rps float64, timeout time.Duration, logger *zerolog.Logger) *Prober {
	if rps <= 0 {
		rps = defaultProbeRPS
	}

	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Prober{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), probeBurst),
		logger:  logger,
	}
}

// Resolve returns the origin's favicon URL when the probe succeeds,
// otherwise an empty string.
func (p *Prober) Resolve(ctx context.Context, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	faviconURL := u.Scheme + "://" + u.Host + faviconPath

	if err := p.limiter.Wait(ctx); err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, faviconURL, nil)
	if err != nil {
		return ""
	}

	resp, err := p.client.Do(req)
	if err != nil {
		observability.FaviconLookups.WithLabelValues("error").Inc()
		p.logger.Debug().Err(err).Str("url", faviconURL).Msg("favicon probe failed")

		return ""
	}

	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1)) // drain for connection reuse

	if resp.StatusCode != http.StatusOK {
		observability.FaviconLookups.WithLabelValues("miss").Inc()

		return ""
	}

	observability.FaviconLookups.WithLabelValues("hit").Inc()

	return faviconURL
}
