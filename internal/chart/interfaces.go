package chart

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/filmoteca/chartfetch/internal/fetch"
)

// PageClient retrieves the chart page, retry handling included.
type PageClient interface {
	Fetch(ctx context.Context, url string) (fetch.Outcome, error)
}

// Hasher computes digests used to fingerprint fetched markup.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock supplies run timestamps; tests substitute a fixed one.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints the invocation ID attached to every run.
type IDGenerator interface {
	NewRawID() (uuid.UUID, error)
}
