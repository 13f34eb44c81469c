package progress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config tunes the hub's buffering and flush cadence.
type Config struct {
	// BufferSize caps how many events may queue before Emit starts dropping.
	BufferSize int
	// MaxBatchEvents flushes a batch once it reaches this many events.
	MaxBatchEvents int
	// MaxBatchWait flushes a smaller batch once this much time has passed
	// since its first event.
	MaxBatchWait time.Duration
	// SinkTimeout bounds each sink call during a flush.
	SinkTimeout time.Duration
	// BaseContext is the parent context passed to sink calls.
	BaseContext context.Context
	// Logger reports drops and sink failures; nil means silent.
	Logger *zap.Logger
}

const (
	defaultBufferSize     = 1024
	defaultMaxBatchEvents = 256
	defaultMaxBatchWait   = 250 * time.Millisecond
	defaultSinkTimeout    = 5 * time.Second
	dropWarnInterval      = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.MaxBatchEvents <= 0 {
		c.MaxBatchEvents = defaultMaxBatchEvents
	}
	if c.MaxBatchWait <= 0 {
		c.MaxBatchWait = defaultMaxBatchWait
	}
	if c.SinkTimeout <= 0 {
		c.SinkTimeout = defaultSinkTimeout
	}
	if c.BaseContext == nil {
		c.BaseContext = context.Background()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Hub collects the event stream of extraction runs and fans batches out to
// its sinks. It is safe for concurrent use and never blocks emitters; an
// extraction run must not stall because a sink is slow.
type Hub struct {
	cfg      Config
	sinks    []Sink
	events   chan Event
	quit     chan struct{}
	done     chan struct{}
	logger   *zap.Logger
	throttle logThrottle
	dropped  atomic.Int64
	closed   atomic.Bool

	closeOnce sync.Once
	closeCtx  context.Context
}

// NewHub starts the background batching goroutine over the supplied sinks.
// The returned Hub accepts events immediately.
func NewHub(cfg Config, sinks ...Sink) *Hub {
	cfg = cfg.withDefaults()
	h := &Hub{
		cfg:      cfg,
		sinks:    append([]Sink(nil), sinks...),
		events:   make(chan Event, cfg.BufferSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   cfg.Logger,
		throttle: logThrottle{interval: dropWarnInterval},
	}
	go h.run()
	return h
}

// Emit enqueues an Event for batching. It never blocks; when the buffer is
// full the event is dropped and the drop is logged, rate limited.
func (h *Hub) Emit(evt Event) {
	if h == nil || h.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("dropping malformed progress event", zap.Error(err))
		return
	}
	select {
	case h.events <- evt:
	default:
		h.noteDrop()
	}
}

func (h *Hub) noteDrop() {
	h.dropped.Add(1)
	if !h.throttle.Allow(time.Now()) {
		return
	}
	h.logger.Warn("progress events dropped due to backpressure",
		zap.Int64("dropped", h.dropped.Swap(0)))
}

// Close drains remaining events, flushes the sinks, and blocks until the
// background goroutine exits. Later calls return without effect once
// shutdown has begun.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeCtx = ctx
		close(h.quit)
	})
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close progress hub: %w", ctx.Err())
	}
}

func (h *Hub) run() {
	defer close(h.done)
	batch := make([]Event, 0, h.cfg.MaxBatchEvents)
	timer := time.NewTimer(h.cfg.MaxBatchWait)
	timer.Stop()
	armed := false

	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
			if len(batch) >= h.cfg.MaxBatchEvents {
				h.flush(batch)
				batch = batch[:0]
				armed = disarm(timer, armed)
				continue
			}
			// The timer runs from the first buffered event, not the
			// latest one, so a steady trickle still flushes on time.
			if !armed {
				timer.Reset(h.cfg.MaxBatchWait)
				armed = true
			}
		case <-timer.C:
			armed = false
			if len(batch) > 0 {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-h.quit:
			disarm(timer, armed)
			h.drain(batch)
			return
		}
	}
}

// drain empties the channel after shutdown began, flushes what is left, and
// closes the sinks.
func (h *Hub) drain(batch []Event) {
	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
			if len(batch) >= h.cfg.MaxBatchEvents {
				h.flush(batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				h.flush(batch)
			}
			h.closeSinks()
			return
		}
	}
}

func (h *Hub) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}
	snapshot := append([]Event(nil), batch...)
	for _, sink := range h.sinks {
		if sink != nil {
			h.deliver(sink, snapshot)
		}
	}
}

// deliver hands one batch to one sink under the configured timeout.
func (h *Hub) deliver(sink Sink, batch []Event) {
	ctx := h.cfg.BaseContext
	cancel := func() {}
	if h.cfg.SinkTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.cfg.SinkTimeout)
	}
	defer cancel()
	if err := sink.Consume(ctx, batch); err != nil {
		h.logger.Warn("sink rejected progress batch", zap.Error(err))
	}
}

func (h *Hub) closeSinks() {
	ctx := h.closeCtx
	if ctx == nil {
		ctx = context.Background()
	}
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(ctx); err != nil {
			h.logger.Warn("sink close failed", zap.Error(err))
		}
	}
}

func disarm(timer *time.Timer, armed bool) bool {
	if armed && !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	return false
}

// logThrottle admits at most one log line per interval.
type logThrottle struct {
	interval time.Duration
	last     atomic.Int64
}

func (t *logThrottle) Allow(now time.Time) bool {
	if t == nil || t.interval <= 0 {
		return true
	}
	prev := t.last.Load()
	if now.UnixNano()-prev < t.interval.Nanoseconds() {
		return false
	}
	return t.last.CompareAndSwap(prev, now.UnixNano())
}
