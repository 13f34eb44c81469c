// Package collyfetcher provides the plain-HTTP chart page fetcher built on Colly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/filmoteca/chartfetch/internal/fetch"
)

const defaultTimeout = 30 * time.Second

// Config carries the identity and patience settings every fetch uses.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
}

// Fetcher implements fetch.PageFetcher with the Colly collector.
type Fetcher struct {
	cfg  Config
	base *colly.Collector
}

// New builds a Fetcher. The base collector carries every setting; Fetch
// clones it per call, which shares the transport and visit store while
// keeping callbacks scoped to the clone. Revisits stay allowed because the
// retry policy upstream fetches the same URL twice.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	base := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	if cfg.UserAgent != "" {
		base.UserAgent = cfg.UserAgent
	}
	base.IgnoreRobotsTxt = !cfg.RespectRobots
	// Non-2xx pages still carry usable markup; the retry policy upstream
	// decides what to do with them.
	base.ParseHTTPErrorResponse = true
	base.WithTransport(newTransport())
	base.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{cfg: cfg, base: base}
}

// Fetch executes a single HTTP GET through a clone of the base collector.
func (f *Fetcher) Fetch(ctx context.Context, request fetch.Request) (fetch.Response, error) {
	capture := &pageCapture{started: time.Now()}
	c := f.base.Clone()
	capture.bind(c, request.Headers)

	visit := make(chan error, 1)
	go func() { visit <- c.Visit(request.URL) }()

	select {
	case <-ctx.Done():
		return fetch.Response{}, fmt.Errorf("fetch %s: %w", request.URL, ctx.Err())
	case err := <-visit:
		if err == nil {
			err = capture.err
		}
		if err != nil {
			return fetch.Response{}, fmt.Errorf("fetch %s: %w", request.URL, err)
		}
	}
	return capture.resp, nil
}

// pageCapture collects the outcome of one visit. The collector runs
// synchronously, so at most one of the response and error callbacks fires
// and no locking is needed.
type pageCapture struct {
	started time.Time
	resp    fetch.Response
	err     error
}

func (pc *pageCapture) bind(c *colly.Collector, headers http.Header) {
	c.OnRequest(func(r *colly.Request) {
		applyHeaders(r.Headers, headers)
	})

	c.OnResponse(func(r *colly.Response) {
		pc.resp = fetch.Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(pc.started),
		}
	})

	c.OnError(func(_ *colly.Response, err error) {
		pc.err = err
	})
}

// applyHeaders writes the request's header set over the collector defaults.
// The first value per key uses Set so the collector's own User-Agent never
// stacks with the browser profile.
func applyHeaders(dst *http.Header, src http.Header) {
	for key, values := range src {
		for i, v := range values {
			if i == 0 {
				dst.Set(key, v)
				continue
			}
			dst.Add(key, v)
		}
	}
}

// newTransport builds the shared HTTP transport. The fetcher talks to a
// single host, so the idle pool stays small.
func newTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: 15 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       60 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}
