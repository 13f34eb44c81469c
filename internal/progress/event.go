package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Stages emitted over one extraction run.
const (
	StageScrapeStart  Stage = "SCRAPE_START"
	StageScrapeDone   Stage = "SCRAPE_DONE"
	StageScrapeError  Stage = "SCRAPE_ERROR"
	StageFetchStart   Stage = "FETCH_START"
	StageFetchRetry   Stage = "FETCH_RETRY"
	StageFetchDone    Stage = "FETCH_DONE"
	StageParseSkip    Stage = "PARSE_SKIP"
	StageRankFallback Stage = "RANK_FALLBACK"
)

// Skip kinds carried in the Note of PARSE_SKIP events.
const (
	SkipBadJSON    = "bad_json"
	SkipBadElement = "bad_element"
	SkipBadItem    = "bad_item"
)

// StatusClass buckets the HTTP status of a completed fetch.
type StatusClass string

// Status classes attached to FETCH_DONE events.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single milestone of one extraction run.
type Event struct {
	// InvocationID identifies one extraction run using the 16-byte UUID form.
	InvocationID [16]byte
	// TS is when the emitter recorded the milestone, always UTC.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Site scopes fetch events to a host label.
	Site string
	// URL is the chart URL involved; it should not contain credentials.
	URL string
	// Bytes carries the response size for fetch and run completions.
	Bytes int64
	// Records counts chart records produced by a completed run.
	Records int64
	// StatusClass groups the final HTTP status (2xx, 3xx, etc).
	StatusClass StatusClass
	// Dur captures latency for fetches and whole runs.
	Dur time.Duration
	// Note carries low-volume context: skip kinds, retry reasons, error text.
	Note string
}

// Validate checks that an Event carries what its stage requires.
func (e Event) Validate() error {
	if e.InvocationID == [16]byte{} {
		return errors.New("invocation id is required")
	}
	if e.TS.IsZero() {
		return errors.New("event timestamp is unset")
	}
	switch e.Stage {
	case StageScrapeStart, StageScrapeDone, StageScrapeError, StageRankFallback:
	case StageFetchStart, StageFetchRetry:
		if e.Site == "" {
			return fmt.Errorf("%s requires site", e.Stage)
		}
	case StageFetchDone:
		if e.Site == "" {
			return fmt.Errorf("%s requires site", e.Stage)
		}
		if e.StatusClass == "" {
			return fmt.Errorf("%s requires a status class", e.Stage)
		}
	case StageParseSkip:
		if e.Note == "" {
			return errors.New("parse skip requires a skip kind note")
		}
	default:
		return fmt.Errorf("unrecognized stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("negative duration")
	}
	return nil
}

// InvocationUUID converts the binary invocation ID to uuid.UUID.
func (e Event) InvocationUUID() uuid.UUID {
	return uuid.UUID(e.InvocationID)
}

// UUIDToBytes converts an invocation UUID to the form events carry.
func UUIDToBytes(id uuid.UUID) [16]byte {
	return [16]byte(id)
}

// ClassifyStatus buckets an HTTP status code for fetch events.
func ClassifyStatus(code int) StatusClass {
	switch code / 100 {
	case 2:
		return Status2xx
	case 3:
		return Status3xx
	case 4:
		return Status4xx
	case 5:
		return Status5xx
	default:
		return StatusOther
	}
}
