// Package app assembles the chart service from configuration and owns its
// lifecycle: the HTTP server, the extraction pipeline, and the progress hub.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/filmoteca/chartfetch/internal/api"
	"github.com/filmoteca/chartfetch/internal/chart"
	"github.com/filmoteca/chartfetch/internal/clock/system"
	"github.com/filmoteca/chartfetch/internal/config"
	"github.com/filmoteca/chartfetch/internal/extract"
	"github.com/filmoteca/chartfetch/internal/fetch"
	collyfetcher "github.com/filmoteca/chartfetch/internal/fetch/colly"
	headlessfetcher "github.com/filmoteca/chartfetch/internal/fetch/headless"
	"github.com/filmoteca/chartfetch/internal/hash/sha256"
	"github.com/filmoteca/chartfetch/internal/id/uuid"
	"github.com/filmoteca/chartfetch/internal/logging"
	"github.com/filmoteca/chartfetch/internal/metrics"
	"github.com/filmoteca/chartfetch/internal/policy/ratelimit"
	"github.com/filmoteca/chartfetch/internal/progress"
	progresssinks "github.com/filmoteca/chartfetch/internal/progress/sinks"
)

// App holds every long-lived piece of the running service.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	apiServer   *api.Server
	progressHub *progress.Hub
	headless    *headlessfetcher.Fetcher
}

// Build wires the service together from cfg: logger, metrics, fetcher,
// extraction pipeline, progress hub, and the API server.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger setup failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	a := &App{cfg: cfg, logger: logger}
	logger.Info("building application",
		zap.String("addr", cfg.Addr()),
		zap.String("parser", cfg.Parser.Strategy),
	)

	metrics.Init()

	scanner, err := extract.ForStrategy(cfg.Parser.Strategy)
	if err != nil {
		return nil, fmt.Errorf("parser init failed: %w", err)
	}

	emitter, err := a.setupProgress(ctx)
	if err != nil {
		return nil, err
	}

	fetcher, err := a.setupFetcher()
	if err != nil {
		return nil, err
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		})
		logger.Info("rate limiter enabled",
			zap.Float64("rps", cfg.RateLimit.RPS),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
	}

	client := fetch.NewClient(fetcher, limiter, fetch.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		MinBodyBytes: cfg.Fetch.MinHTMLBytes,
	}, logger.Named("fetch"))

	service := chart.NewService(
		client,
		scanner,
		emitter,
		system.New(),
		uuid.New(),
		sha256.New(),
		logger.Named("chart"),
	)
	a.apiServer = api.NewServer(service, cfg, logger.Named("api"))

	return a, nil
}

// Handler returns the HTTP handler serving the control panel and the API.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts the HTTP server and blocks until the context is canceled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("chart service starting")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server listening", zap.String("addr", a.cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown failed", zap.Error(err))
	}

	return a.Close(shutdownCtx)
}

// Close drains the progress hub, tears down the browser, and flushes the
// logger. The hub goes first so buffered events still reach their sinks.
func (a *App) Close(ctx context.Context) error {
	if a.progressHub != nil {
		if err := a.progressHub.Close(ctx); err != nil {
			a.logger.Warn("progress hub did not drain cleanly", zap.Error(err))
		}
	}
	if a.headless != nil {
		a.headless.Close()
	}
	a.logger.Info("chart service stopped")
	if err := a.logger.Sync(); err != nil {
		a.logger.Warn("log flush failed", zap.Error(err))
	}
	return nil
}

// setupProgress builds the progress hub and its sinks. A disabled tracker
// returns a nil emitter, which the service treats as no-op.
func (a *App) setupProgress(ctx context.Context) (progress.Emitter, error) {
	if !a.cfg.Progress.Enabled {
		a.logger.Info("progress tracking disabled")
		return nil, nil
	}
	promSink, err := progresssinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("progress metrics sink init failed: %w", err)
	}
	sinkList := []progress.Sink{promSink}
	if a.cfg.Progress.LogEnabled {
		sinkList = append(sinkList, progresssinks.NewLogSink(a.logger.Named("progress_log")))
	}
	hubCfg := progress.Config{
		BufferSize:     a.cfg.Progress.BufferSize,
		MaxBatchEvents: a.cfg.Progress.Batch.MaxEvents,
		MaxBatchWait:   a.cfg.MaxBatchWait(),
		SinkTimeout:    a.cfg.SinkTimeout(),
		BaseContext:    ctx,
		Logger:         a.logger.Named("progress_hub"),
	}
	a.progressHub = progress.NewHub(hubCfg, sinkList...)
	a.logger.Info("progress hub initialized",
		zap.Int("buffer_size", hubCfg.BufferSize),
		zap.Int("max_batch_events", hubCfg.MaxBatchEvents),
		zap.Duration("max_batch_wait", hubCfg.MaxBatchWait),
		zap.Duration("sink_timeout", hubCfg.SinkTimeout),
	)
	return a.progressHub, nil
}

// setupFetcher picks the page fetcher: a headless browser when rendering is
// required, the colly collector otherwise.
func (a *App) setupFetcher() (fetch.PageFetcher, error) {
	if a.cfg.Headless.Enabled {
		headless, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       a.cfg.Headless.MaxParallel,
			UserAgent:         a.cfg.Fetch.UserAgent,
			NavigationTimeout: a.cfg.NavTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("headless fetcher init failed: %w", err)
		}
		a.headless = headless
		a.logger.Info("using headless fetcher", zap.Int("max_parallel", a.cfg.Headless.MaxParallel))
		return headless, nil
	}
	f := collyfetcher.New(collyfetcher.Config{
		UserAgent:     a.cfg.Fetch.UserAgent,
		RespectRobots: a.cfg.Fetch.RespectRobots,
		Timeout:       a.cfg.FetchTimeout(),
	})
	a.logger.Info("using colly fetcher", zap.String("user_agent", a.cfg.Fetch.UserAgent))
	return f, nil
}
