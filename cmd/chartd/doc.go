// Package main hosts the chart service entrypoint.
//
// How the pieces fit:
//   - HTTP API: internal/api.Server exposes the control panel, the JSON download
//     and movie feed endpoints, and health/metrics probes. Request filters are
//     normalized into chart.Filters before any fetch happens, so malformed
//     values fall back to defaults instead of erroring.
//   - Extraction pipeline: each request runs one fetch through the retry-aware
//     client (browser headers, es-ES primary with an en-US retry), scans the
//     markup for canonical ranks and the ItemList structured-data block, and
//     merges both into the final movie list. Nothing is cached or persisted
//     between requests.
//   - Fetchers: the Colly-based fetcher is the default engine; the Chromedp
//     headless fetcher takes over when headless.enabled is set and hands fully
//     rendered markup to the same extraction pass.
//   - Observability: zap logs carry invocation IDs and URLs at key transitions;
//     Prometheus counters and histograms track fetches, retries, and HTTP
//     activity; the progress hub batches extraction lifecycle events for its
//     log and metrics sinks.
//   - Configuration: Viper populates config from env and an optional YAML file;
//     bare HOST and PORT stay honored for platform compatibility alongside the
//     CHART_-prefixed forms.
//
// At runtime:
//   - Concurrency model: extraction is request-scoped with no background jobs;
//     headless fetches share a semaphore inside the Chromedp fetcher. Shutdown
//     is coordinated via context cancellation propagated from main through the
//     server, with a 10s drain window.
//   - Rate limiting: the per-host limiter paces outbound fetches when
//     ratelimit.enabled is set; politeness stalls surface as metrics.
//
// Run locally: go run ./cmd/chartd -config config.yaml, or rely solely on env
// overrides (CHART_SERVER_PORT or PORT select the listen port).
package main
