package progress

import "context"

// Sink receives flushed batches of progress events. Implementations must
// tolerate repeated calls, honor ctx deadlines, and may run concurrently
// with each other.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so the
// extraction pipeline stays agnostic about how events are buffered or
// exported.
type Emitter interface {
	Emit(evt Event)
}
