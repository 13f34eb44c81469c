// Package headless renders chart pages in a real browser before extraction.
// The chart endpoint ships most of its markup server-side, but a rendered
// DOM picks up rows that only appear after scripts run.
package headless

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/filmoteca/chartfetch/internal/fetch"
)

// DefaultWaitSelector is the chart's structured-data block. Navigation waits
// for it instead of a fixed delay; extraction cannot start without it.
const DefaultWaitSelector = `script[type="application/ld+json"]`

// settleDelay gives late row anchors a beat to attach after scrolling.
const settleDelay = 300 * time.Millisecond

const defaultNavTimeout = 45 * time.Second

// Config shapes the shared browser and its per-fetch behavior.
type Config struct {
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
	// WaitSelector overrides the element navigation waits for. Empty means
	// DefaultWaitSelector.
	WaitSelector string
}

// Fetcher implements fetch.PageFetcher with a shared headless Chrome
// allocator. Slots bound how many tabs render at once.
type Fetcher struct {
	cfg         Config
	slots       chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewChromedp creates a headless fetcher backed by chromedp. Image loading
// is switched off in the browser; the chart page is poster-heavy and
// extraction only reads markup.
func NewChromedp(cfg Config) (*Fetcher, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("headless max parallel %d is negative", cfg.MaxParallel)
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavTimeout
	}
	if cfg.WaitSelector == "" {
		cfg.WaitSelector = DefaultWaitSelector
	}
	var slots chan struct{}
	if cfg.MaxParallel > 0 {
		slots = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		// A tall window renders more of the list before any scrolling.
		chromedp.WindowSize(1366, 2400),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		slots:       slots,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close tears down the shared browser; in-flight tabs end with it.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch renders the chart page in a fresh tab and returns the final DOM.
func (f *Fetcher) Fetch(ctx context.Context, request fetch.Request) (fetch.Response, error) {
	if err := f.acquireSlot(ctx); err != nil {
		return fetch.Response{}, err
	}
	defer f.releaseSlot()

	tabCtx, tabCancel := chromedp.NewContext(f.allocator)
	defer tabCancel()

	tabCtx, cancel := context.WithTimeout(tabCtx, f.navTimeout())
	defer cancel()

	doc := newDocumentMeta()
	chromedp.ListenTarget(tabCtx, doc.listen)

	start := time.Now()
	html, finalURL, err := f.render(tabCtx, request)
	if err != nil {
		return fetch.Response{}, err
	}

	resp := fetch.Response{
		Body:     []byte(html),
		Duration: time.Since(start),
	}
	doc.fill(&resp, request.URL, finalURL)
	return resp, nil
}

// render drives the tab: navigate, wait for the structured-data block,
// scroll the rest of the list into the DOM, then lift the rendered markup.
func (f *Fetcher) render(ctx context.Context, request fetch.Request) (string, string, error) {
	var (
		html     string
		finalURL string
	)
	actions := []chromedp.Action{
		f.profileAction(request.Headers),
		chromedp.Navigate(request.URL),
		chromedp.WaitReady(f.cfg.WaitSelector, chromedp.ByQuery),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(settleDelay),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", "", fmt.Errorf("render chart page: %w", err)
	}
	return html, finalURL, nil
}

// profileAction applies the request's browser identity. The User-Agent rides
// on the emulation override rather than the extra-header list so Chrome
// treats it as its own identity; Accept-Language and the rest go out as
// extra headers, which keeps locale retries honest in headless mode too.
func (f *Fetcher) profileAction(headers http.Header) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network events: %w", err)
		}
		ua := headers.Get("User-Agent")
		if ua == "" {
			ua = f.cfg.UserAgent
		}
		if ua != "" {
			if err := emulation.SetUserAgentOverride(ua).Do(ctx); err != nil {
				return fmt.Errorf("apply user agent: %w", err)
			}
		}
		extra := headers.Clone()
		extra.Del("User-Agent")
		if len(extra) > 0 {
			if err := network.SetExtraHTTPHeaders(networkHeaders(extra)).Do(ctx); err != nil {
				return fmt.Errorf("apply request headers: %w", err)
			}
		}
		return nil
	})
}

func (f *Fetcher) acquireSlot(ctx context.Context) error {
	if f.slots == nil {
		return nil
	}
	select {
	case f.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("browser slot wait canceled: %w", ctx.Err())
	}
}

func (f *Fetcher) releaseSlot() {
	if f.slots == nil {
		return
	}
	select {
	case <-f.slots:
	default:
	}
}

func (f *Fetcher) navTimeout() time.Duration {
	if f.cfg.NavigationTimeout > 0 {
		return f.cfg.NavigationTimeout
	}
	return defaultNavTimeout
}

// documentMeta collects the main document's network response while the tab
// loads. Subresource responses are ignored; only the document's status and
// headers describe the chart fetch.
type documentMeta struct {
	mu      sync.Mutex
	status  int
	headers http.Header
	url     string
}

func newDocumentMeta() *documentMeta {
	return &documentMeta{headers: http.Header{}}
}

func (m *documentMeta) listen(ev any) {
	if resp, ok := ev.(*network.EventResponseReceived); ok {
		m.record(resp)
	}
}

func (m *documentMeta) record(event *network.EventResponseReceived) {
	if event.Type != network.ResourceTypeDocument || event.Response == nil {
		return
	}
	headers := http.Header{}
	for key, value := range event.Response.Headers {
		switch v := value.(type) {
		case string:
			headers.Add(key, v)
		case []string:
			for _, entry := range v {
				headers.Add(key, entry)
			}
		case []interface{}:
			for _, entry := range v {
				headers.Add(key, fmt.Sprint(entry))
			}
		default:
			headers.Add(key, fmt.Sprint(v))
		}
	}
	m.mu.Lock()
	m.status = int(event.Response.Status)
	m.headers = headers
	m.url = event.Response.URL
	m.mu.Unlock()
}

// fill writes the captured document response into resp. A tab that never
// reported a document response counts as a plain 200 at whichever URL
// navigation ended on.
func (m *documentMeta) fill(resp *fetch.Response, requestURL, finalURL string) {
	m.mu.Lock()
	status, headers, url := m.status, m.headers.Clone(), m.url
	m.mu.Unlock()

	if headers == nil {
		headers = http.Header{}
	}
	if url == "" {
		url = finalURL
	}
	if url == "" {
		url = requestURL
	}
	if status == 0 {
		status = http.StatusOK
	}
	resp.URL = url
	resp.StatusCode = status
	resp.Headers = headers
}

func networkHeaders(h http.Header) network.Headers {
	out := network.Headers{}
	for key, values := range h {
		switch len(values) {
		case 0:
		case 1:
			out[key] = values[0]
		default:
			out[key] = append([]string(nil), values...)
		}
	}
	return out
}
