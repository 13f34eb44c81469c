// Package api hosts the HTTP server, middleware, and handlers for the chart
// control panel. Notable routes:
//   - GET / and POST /preview for the HTML control panel.
//   - GET /download.json for the movies-only JSON attachment.
//   - GET /api/movies for the full extraction result as JSON.
//   - GET /healthz / readyz for probes, GET /metrics for Prometheus scraping.
package api
