package chart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filmoteca/chartfetch/internal/extract"
	"github.com/filmoteca/chartfetch/internal/fetch"
	"github.com/filmoteca/chartfetch/internal/metrics"
	"github.com/filmoteca/chartfetch/internal/progress"
)

// servicePage carries two ranked entries: one whose rank anchor is present
// and one that must fall back to its list position. The first ld+json block
// is broken on purpose.
const servicePage = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">{"@type": "ItemList", "itemListElement": [</script>
<script type="application/ld+json">
{
  "@type": "ItemList",
  "itemListElement": [
    {"@type": "ListItem", "item": {"@type": "Movie", "url": "https://www.imdb.com/es-es/title/tt0111161/", "name": "Cadena perpetua", "aggregateRating": {"ratingValue": 9.3, "ratingCount": 2900000}}},
    {"@type": "ListItem", "item": {"@type": "Movie", "url": "https://www.imdb.com/es-es/title/tt9999999/", "name": "Desconocida"}}
  ]
}
</script>
</head>
<body>
<a href="/title/tt0111161/?ref_=chttp_t_1">Cadena perpetua</a>
</body>
</html>`

func okOutcome(body string) fetch.Outcome {
	return fetch.Outcome{
		Response: fetch.Response{
			URL:        DefaultChartURL,
			StatusCode: 200,
			Body:       []byte(body),
			Duration:   25 * time.Millisecond,
		},
		Attempts: 1,
	}
}

func newTestService(client PageClient, hub progress.Emitter) *Service {
	return NewService(
		client,
		extract.NewDOMScanner(),
		hub,
		&fakeClock{now: time.Unix(100, 0), step: 5 * time.Millisecond},
		&fakeIDs{id: uuid.New()},
		&fakeHasher{hash: "abc123"},
		zap.NewNop(),
	)
}

func stages(events []progress.Event) []progress.Stage {
	out := make([]progress.Stage, 0, len(events))
	for _, evt := range events {
		out = append(out, evt.Stage)
	}
	return out
}

func TestServiceExtractSuccess(t *testing.T) {
	t.Parallel()
	metrics.Init()

	client := &fakeClient{outcome: okOutcome(servicePage)}
	hub := &stubEmitter{}
	svc := newTestService(client, hub)

	f := Filters{Limit: 50, Sort: SortRanking, Direction: DirectionDesc}
	result, err := svc.Extract(context.Background(), f)
	require.NoError(t, err)

	require.Equal(t, []string{DefaultChartURL}, client.urls)
	require.Equal(t, DefaultChartURL, result.URL)
	require.Equal(t, f, result.Filters)
	require.Equal(t, 2, result.Count)
	require.Len(t, result.Movies, 2)
	require.Equal(t, 1, result.Movies[0].Rank)
	require.Equal(t, "Cadena perpetua", result.Movies[0].Name)
	require.Equal(t, "9.3", result.Movies[0].RatingValue.String())
	require.Equal(t, 2, result.Movies[1].Rank)

	require.Equal(t, 200, result.Diagnostics.HTTPStatus)
	require.Equal(t, len(servicePage), result.Diagnostics.HTMLLength)
	require.Equal(t, 2, result.Diagnostics.LDJSONBlocks)

	require.Equal(t, []progress.Stage{
		progress.StageScrapeStart,
		progress.StageFetchStart,
		progress.StageFetchDone,
		progress.StageParseSkip,
		progress.StageRankFallback,
		progress.StageScrapeDone,
	}, stages(hub.events))

	for _, evt := range hub.events {
		require.Equal(t, hub.events[0].InvocationID, evt.InvocationID)
		require.NoError(t, evt.Validate())
	}

	fetchDone := hub.events[2]
	require.Equal(t, "www.imdb.com", fetchDone.Site)
	require.Equal(t, progress.Status2xx, fetchDone.StatusClass)
	require.Equal(t, int64(len(servicePage)), fetchDone.Bytes)
	require.Equal(t, 25*time.Millisecond, fetchDone.Dur)

	skip := hub.events[3]
	require.Equal(t, progress.SkipBadJSON, skip.Note)

	done := hub.events[5]
	require.Equal(t, int64(2), done.Records)
	require.Equal(t, "sha256:abc123", done.Note)
	require.Greater(t, done.Dur, time.Duration(0))
}

func TestServiceExtractFetchError(t *testing.T) {
	t.Parallel()
	metrics.Init()

	client := &fakeClient{err: &fetch.Error{URL: DefaultChartURL, StatusCode: 503}}
	hub := &stubEmitter{}
	svc := newTestService(client, hub)

	_, err := svc.Extract(context.Background(), Filters{Limit: 50, Sort: SortRanking, Direction: DirectionDesc})
	require.Error(t, err)
	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 503, fetchErr.StatusCode)

	require.Equal(t, []progress.Stage{
		progress.StageScrapeStart,
		progress.StageFetchStart,
		progress.StageScrapeError,
	}, stages(hub.events))
	require.Contains(t, hub.events[2].Note, "unexpected status 503")
}

func TestServiceExtractRetriedFetch(t *testing.T) {
	t.Parallel()
	metrics.Init()

	outcome := okOutcome(servicePage)
	outcome.Attempts = 2
	outcome.Retried = true
	outcome.RetryReason = fetch.ReasonShortBody
	client := &fakeClient{outcome: outcome}
	hub := &stubEmitter{}
	svc := newTestService(client, hub)

	_, err := svc.Extract(context.Background(), Filters{Limit: 50, Sort: SortRanking, Direction: DirectionDesc})
	require.NoError(t, err)

	require.Equal(t, []progress.Stage{
		progress.StageScrapeStart,
		progress.StageFetchStart,
		progress.StageFetchRetry,
		progress.StageFetchDone,
		progress.StageParseSkip,
		progress.StageRankFallback,
		progress.StageScrapeDone,
	}, stages(hub.events))
	require.Equal(t, fetch.ReasonShortBody, hub.events[2].Note)
}

func TestServiceExtractLimitTruncates(t *testing.T) {
	t.Parallel()
	metrics.Init()

	client := &fakeClient{outcome: okOutcome(servicePage)}
	svc := newTestService(client, &stubEmitter{})

	result, err := svc.Extract(context.Background(), Filters{Limit: 1, Sort: SortUserRating, Direction: DirectionAsc})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	require.Len(t, result.Movies, 1)
	require.Equal(t, DefaultChartURL+"&sort=user_rating%2Casc", result.URL)
	require.Equal(t, []string{result.URL}, client.urls)
}

func TestServiceExtractNoItemList(t *testing.T) {
	t.Parallel()
	metrics.Init()

	client := &fakeClient{outcome: okOutcome("<html><body><p>mantenimiento</p></body></html>")}
	hub := &stubEmitter{}
	svc := newTestService(client, hub)

	result, err := svc.Extract(context.Background(), Filters{Limit: 50, Sort: SortRanking, Direction: DirectionDesc})
	require.NoError(t, err)
	require.Equal(t, 0, result.Count)
	require.NotNil(t, result.Movies)
	require.Empty(t, result.Movies)
	require.Equal(t, 0, result.Diagnostics.LDJSONBlocks)

	require.Equal(t, []progress.Stage{
		progress.StageScrapeStart,
		progress.StageFetchStart,
		progress.StageFetchDone,
		progress.StageScrapeDone,
	}, stages(hub.events))
	require.Equal(t, int64(0), hub.events[3].Records)
}

func TestServiceExtractIDGenerationFailure(t *testing.T) {
	t.Parallel()
	metrics.Init()

	hub := &stubEmitter{}
	svc := NewService(
		&fakeClient{outcome: okOutcome(servicePage)},
		extract.NewDOMScanner(),
		hub,
		&fakeClock{now: time.Unix(100, 0)},
		&fakeIDs{err: errors.New("entropy exhausted")},
		nil,
		zap.NewNop(),
	)

	_, err := svc.Extract(context.Background(), Filters{Limit: 50, Sort: SortRanking, Direction: DirectionDesc})
	require.ErrorContains(t, err, "new invocation id")
	require.Empty(t, hub.events)
}

func TestServiceExtractWithoutHubOrHasher(t *testing.T) {
	t.Parallel()
	metrics.Init()

	svc := NewService(
		&fakeClient{outcome: okOutcome(servicePage)},
		extract.NewDOMScanner(),
		nil,
		&fakeClock{now: time.Unix(100, 0)},
		&fakeIDs{id: uuid.New()},
		nil,
		nil,
	)

	result, err := svc.Extract(context.Background(), Filters{Limit: 50, Sort: SortRanking, Direction: DirectionDesc})
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
}

type fakeClient struct {
	outcome fetch.Outcome
	err     error
	urls    []string
}

func (c *fakeClient) Fetch(_ context.Context, url string) (fetch.Outcome, error) {
	c.urls = append(c.urls, url)
	if c.err != nil {
		return fetch.Outcome{}, c.err
	}
	return c.outcome, nil
}

type stubEmitter struct {
	events []progress.Event
}

func (e *stubEmitter) Emit(evt progress.Event) {
	e.events = append(e.events, evt)
}

// fakeClock advances by step on every read so durations come out non-zero.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

type fakeIDs struct {
	id  uuid.UUID
	err error
}

func (g *fakeIDs) NewRawID() (uuid.UUID, error) {
	if g.err != nil {
		return uuid.Nil, g.err
	}
	return g.id, nil
}

type fakeHasher struct {
	hash string
	err  error
}

func (h *fakeHasher) Hash(data []byte) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	if h.hash != "" {
		return h.hash, nil
	}
	return string(data), nil
}
