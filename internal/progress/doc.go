// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces the extraction pipeline uses to report its milestones.
// Events are batched on a background goroutine and fanned out to pluggable
// sinks such as structured logs or Prometheus collectors.
package progress
