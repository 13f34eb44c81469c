// Package fetch retrieves chart pages over HTTP. The transport lives behind
// the PageFetcher interface; the Client on top applies browser headers,
// politeness delays, and the single-retry policy for half-rendered pages.
package fetch

import (
	"context"
	"net/http"
	"time"
)

// Request describes one page retrieval.
type Request struct {
	URL     string
	Headers http.Header
}

// Response is the transport-level outcome of one attempt.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// PageFetcher retrieves a single page. Implementations return an error only
// for transport failures; HTTP error statuses still come back as a Response
// so the caller can inspect the body.
type PageFetcher interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}
