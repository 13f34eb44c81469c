package fetch

import (
	"context"

	"go.uber.org/zap"

	"github.com/filmoteca/chartfetch/internal/metrics"
	"github.com/filmoteca/chartfetch/internal/policy/ratelimit"
)

// Locale labels used on fetch metrics.
const (
	localeLabelPrimary = "primary"
	localeLabelRetry   = "retry"
)

// Config tunes the retry-aware client.
type Config struct {
	// UserAgent overrides DefaultUserAgent when non-empty.
	UserAgent string
	// MinBodyBytes is the completeness threshold, DefaultMinBodyBytes when
	// unset.
	MinBodyBytes int
}

// Outcome describes one completed retrieval.
type Outcome struct {
	Response    Response
	Attempts    int
	Retried     bool
	RetryReason string
}

// Client retrieves one chart page with browser headers and at most one
// retry. The retry fires when the first response looks incomplete; the
// second response is final whatever it looks like.
type Client struct {
	fetcher  PageFetcher
	detector IncompleteDetector
	limiter  *ratelimit.Limiter
	logger   *zap.Logger
	cfg      Config
}

// NewClient builds a Client. The limiter may be nil to skip politeness
// delays.
func NewClient(fetcher PageFetcher, limiter *ratelimit.Limiter, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		fetcher:  fetcher,
		detector: NewIncompleteDetector(cfg.MinBodyBytes),
		limiter:  limiter,
		logger:   logger,
		cfg:      cfg,
	}
}

// Fetch retrieves url. Transport failures and final non-2xx statuses come
// back as *Error; a final accepted status passes through so the caller can
// still parse whatever was served.
func (c *Client) Fetch(ctx context.Context, url string) (Outcome, error) {
	resp, err := c.attempt(ctx, url, localeLabelPrimary, PrimaryLocale)
	if err != nil {
		return Outcome{}, &Error{URL: url, Err: err}
	}

	outcome := Outcome{Response: resp, Attempts: 1}
	if reason := c.detector.Reason(resp); reason != "" {
		c.logger.Info("retrying incomplete chart page",
			zap.String("url", url),
			zap.String("reason", reason),
			zap.Int("status", resp.StatusCode),
			zap.Int("bytes", len(resp.Body)),
		)
		metrics.ObserveFetchIncomplete(reason)
		metrics.ObserveFetchRetry()

		retryResp, retryErr := c.attempt(ctx, url, localeLabelRetry, RetryLocale)
		if retryErr != nil {
			return Outcome{}, &Error{URL: url, Err: retryErr}
		}
		outcome = Outcome{Response: retryResp, Attempts: 2, Retried: true, RetryReason: reason}
	}

	final := outcome.Response
	if final.StatusCode < 200 || final.StatusCode >= 300 {
		return Outcome{}, &Error{URL: url, StatusCode: final.StatusCode}
	}
	return outcome, nil
}

func (c *Client) attempt(ctx context.Context, url, label, locale string) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return Response{}, err
		}
	}
	resp, err := c.fetcher.Fetch(ctx, Request{URL: url, Headers: BrowserHeaders(c.cfg.UserAgent, locale)})
	if err != nil {
		return Response{}, err
	}
	metrics.ObserveFetch(label, resp.StatusCode, len(resp.Body), resp.Duration)
	return resp, nil
}
