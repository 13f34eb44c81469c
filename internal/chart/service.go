package chart

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/filmoteca/chartfetch/internal/extract"
	"github.com/filmoteca/chartfetch/internal/metrics"
	"github.com/filmoteca/chartfetch/internal/progress"
)

// Service runs the extraction pipeline end to end: build the chart URL,
// fetch the page, recover ranks and structured data, merge, and assemble
// the response envelope.
type Service struct {
	client  PageClient
	scanner extract.Scanner
	hub     progress.Emitter
	clock   Clock
	ids     IDGenerator
	hasher  Hasher
	logger  *zap.Logger
}

// NewService constructs a Service. The hub and hasher may be nil; progress
// events and body digests are then skipped.
func NewService(
	client PageClient,
	scanner extract.Scanner,
	hub progress.Emitter,
	clock Clock,
	ids IDGenerator,
	hasher Hasher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:  client,
		scanner: scanner,
		hub:     hub,
		clock:   clock,
		ids:     ids,
		hasher:  hasher,
		logger:  logger,
	}
}

// Extract performs one chart extraction for the given filters. The returned
// Result is ready for JSON encoding; errors cover ID generation and fetch
// failures only, extraction itself degrades to fewer records.
func (s *Service) Extract(ctx context.Context, f Filters) (Result, error) {
	rawID, err := s.ids.NewRawID()
	if err != nil {
		return Result{}, fmt.Errorf("new invocation id: %w", err)
	}
	id := progress.UUIDToBytes(rawID)
	start := s.clock.Now()
	url := BuildChartURL(f)
	site := metrics.SanitizeSite(url)

	logger := s.logger.With(
		zap.String("invocation_id", rawID.String()),
		zap.String("url", url),
	)
	logger.Info("chart extraction started",
		zap.Int("limit", f.Limit),
		zap.String("sort", string(f.Sort)),
		zap.String("direction", string(f.Direction)),
	)

	s.emit(progress.Event{InvocationID: id, TS: start, Stage: progress.StageScrapeStart, URL: url})
	s.emit(progress.Event{InvocationID: id, TS: s.clock.Now(), Stage: progress.StageFetchStart, Site: site, URL: url})

	outcome, err := s.client.Fetch(ctx, url)
	if err != nil {
		now := s.clock.Now()
		s.emit(progress.Event{
			InvocationID: id,
			TS:           now,
			Stage:        progress.StageScrapeError,
			URL:          url,
			Dur:          now.Sub(start),
			Note:         err.Error(),
		})
		logger.Warn("chart fetch failed", zap.Error(err))
		return Result{}, fmt.Errorf("fetch chart: %w", err)
	}
	if outcome.Retried {
		s.emit(progress.Event{
			InvocationID: id,
			TS:           s.clock.Now(),
			Stage:        progress.StageFetchRetry,
			Site:         site,
			URL:          url,
			Note:         outcome.RetryReason,
		})
	}
	resp := outcome.Response
	s.emit(progress.Event{
		InvocationID: id,
		TS:           s.clock.Now(),
		Stage:        progress.StageFetchDone,
		Site:         site,
		URL:          url,
		Bytes:        int64(len(resp.Body)),
		StatusClass:  progress.ClassifyStatus(resp.StatusCode),
		Dur:          resp.Duration,
	})

	index := s.scanner.ScanRanks(resp.Body)
	scan := s.scanner.ScanList(resp.Body)
	if scan.List == nil {
		logger.Warn("no chart item list found", zap.Int("ldjson_blocks", scan.Blocks))
	}
	movies, stats := MergeRecords(index, scan.List)
	s.emitParseEvents(logger, id, scan, stats)
	metrics.ObserveRecords(len(movies))

	diag := Diagnostics{
		HTTPStatus:   resp.StatusCode,
		HTMLLength:   len(resp.Body),
		LDJSONBlocks: scan.Blocks,
	}
	result := AssembleResult(url, f, diag, movies)

	done := s.clock.Now()
	doneEvt := progress.Event{
		InvocationID: id,
		TS:           done,
		Stage:        progress.StageScrapeDone,
		URL:          url,
		Bytes:        int64(len(resp.Body)),
		Records:      int64(result.Count),
		Dur:          done.Sub(start),
	}
	if s.hasher != nil {
		if digest, hashErr := s.hasher.Hash(resp.Body); hashErr == nil {
			doneEvt.Note = "sha256:" + digest
		}
	}
	s.emit(doneEvt)

	logger.Info("chart extraction finished",
		zap.Int("records", result.Count),
		zap.Int("ranks_known", len(index)),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Bool("retried", outcome.Retried),
		zap.Duration("elapsed", done.Sub(start)),
	)
	return result, nil
}

// emitParseEvents converts merge statistics into one event per skip or
// fallback. Positions go to debug logs only; the events stay aggregate.
func (s *Service) emitParseEvents(logger *zap.Logger, id [16]byte, scan extract.ListScan, stats MergeStats) {
	now := s.clock.Now()
	for i := 0; i < scan.Malformed; i++ {
		s.emit(progress.Event{InvocationID: id, TS: now, Stage: progress.StageParseSkip, Note: progress.SkipBadJSON})
	}
	for _, pos := range stats.SkippedElements {
		logger.Debug("skipped non-object list element", zap.Int("position", pos))
		s.emit(progress.Event{InvocationID: id, TS: now, Stage: progress.StageParseSkip, Note: progress.SkipBadElement})
	}
	for _, pos := range stats.SkippedItems {
		logger.Debug("skipped list element without item object", zap.Int("position", pos))
		s.emit(progress.Event{InvocationID: id, TS: now, Stage: progress.StageParseSkip, Note: progress.SkipBadItem})
	}
	for _, pos := range stats.RankFallbacks {
		logger.Debug("rank fallback to list position", zap.Int("position", pos))
		s.emit(progress.Event{InvocationID: id, TS: now, Stage: progress.StageRankFallback})
	}
}

func (s *Service) emit(evt progress.Event) {
	if s.hub == nil {
		return
	}
	s.hub.Emit(evt)
}
