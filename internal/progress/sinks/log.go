package sinks

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/filmoteca/chartfetch/internal/progress"
)

// LogSink mirrors the progress stream into structured logs. It is useful
// during development or audits where a metrics backend is unavailable.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink builds a sink around logger; nil silences it.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume writes one line per event. Retries and run errors land at warn,
// everything else at info; fields a stage left unset are omitted.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		entry := s.logger.Check(levelFor(evt.Stage), "extraction progress")
		if entry == nil {
			continue
		}
		entry.Write(eventFields(evt)...)
	}
	return nil
}

// Close implements progress.Sink; nothing buffers here.
func (s *LogSink) Close(context.Context) error {
	return nil
}

func levelFor(stage progress.Stage) zapcore.Level {
	switch stage {
	case progress.StageFetchRetry, progress.StageScrapeError:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func eventFields(evt progress.Event) []zap.Field {
	fields := make([]zap.Field, 0, 9)
	fields = append(fields,
		zap.String("invocation_id", evt.InvocationUUID().String()),
		zap.String("stage", string(evt.Stage)),
	)
	if evt.Site != "" {
		fields = append(fields, zap.String("site", evt.Site))
	}
	if evt.URL != "" {
		fields = append(fields, zap.String("url", evt.URL))
	}
	if evt.Bytes > 0 {
		fields = append(fields, zap.Int64("bytes", evt.Bytes))
	}
	if evt.Records > 0 || evt.Stage == progress.StageScrapeDone {
		fields = append(fields, zap.Int64("records", evt.Records))
	}
	if evt.StatusClass != "" {
		fields = append(fields, zap.String("status_class", string(evt.StatusClass)))
	}
	if evt.Dur > 0 {
		fields = append(fields, zap.Duration("dur", evt.Dur))
	}
	if evt.Note != "" {
		fields = append(fields, zap.String("note", evt.Note))
	}
	return fields
}
