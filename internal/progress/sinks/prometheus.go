package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/filmoteca/chartfetch/internal/progress"
)

// PrometheusSink exports extraction progress via Prometheus. It owns the
// run lifecycle collectors plus the parse quality counters; transport-level
// fetch metrics are recorded at their call sites instead, so the two sets
// never double count.
type PrometheusSink struct {
	scrapesStarted   prometheus.Counter
	scrapesCompleted *prometheus.CounterVec
	scrapesRunning   prometheus.Gauge
	scrapeRuntime    *prometheus.HistogramVec

	parseSkips    *prometheus.CounterVec
	rankFallbacks prometheus.Counter

	tracker *runTracker
}

// NewPrometheusSink builds the collectors and registers them with reg; nil
// falls back to the default registerer.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		scrapesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_scrapes_started_total",
			Help: "Total chart extraction runs that have started.",
		}),
		scrapesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chart_scrapes_completed_total",
			Help: "Total extraction runs completed partitioned by result.",
		}, []string{"result"}),
		scrapesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chart_scrapes_running",
			Help: "Current number of in-flight extraction runs.",
		}),
		scrapeRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chart_scrape_runtime_seconds",
			Help:    "Wall time per completed extraction run.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"result"}),
		parseSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chart_parse_skips_total",
			Help: "Structured-data entries skipped during parsing, by kind.",
		}, []string{"kind"}),
		rankFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_rank_fallbacks_total",
			Help: "Records that fell back to their list position as rank.",
		}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.scrapesStarted,
		s.scrapesCompleted,
		s.scrapesRunning,
		s.scrapeRuntime,
		s.parseSkips,
		s.rankFallbacks,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register chart progress collectors: %w", err)
		}
	}
	return s, nil
}

// Consume folds a batch into the collectors. Concurrent flushes are fine;
// the run tracker serializes the in-flight bookkeeping.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.apply(evt)
	}
	return nil
}

func (s *PrometheusSink) apply(evt progress.Event) {
	switch evt.Stage {
	case progress.StageScrapeStart, progress.StageScrapeDone, progress.StageScrapeError:
		s.handleRunEvent(evt)
	case progress.StageParseSkip:
		kind := evt.Note
		if kind == "" {
			kind = "unknown"
		}
		s.parseSkips.WithLabelValues(kind).Inc()
	case progress.StageRankFallback:
		s.rankFallbacks.Inc()
	}
}

func (s *PrometheusSink) handleRunEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageScrapeStart:
		s.scrapesStarted.Inc()
		if s.tracker.start(evt.InvocationID) {
			s.scrapesRunning.Inc()
		}
	case progress.StageScrapeDone:
		s.scrapesCompleted.WithLabelValues("success").Inc()
		s.recordRuntime(evt, "success")
	case progress.StageScrapeError:
		s.scrapesCompleted.WithLabelValues("error").Inc()
		s.recordRuntime(evt, "error")
	}
	if evt.Stage != progress.StageScrapeStart && s.tracker.complete(evt.InvocationID) {
		s.scrapesRunning.Dec()
	}
}

func (s *PrometheusSink) recordRuntime(evt progress.Event, label string) {
	if evt.Dur > 0 {
		s.scrapeRuntime.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

// Close implements progress.Sink; the collectors stay registered.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runTracker struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[[16]byte]struct{})}
}

func (t *runTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
