package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleResultTruncates(t *testing.T) {
	t.Parallel()

	f := Filters{Limit: 2, Sort: SortRanking, Direction: DirectionDesc}
	movies := []Movie{{Rank: 1, Name: "first"}, {Rank: 2, Name: "second"}, {Rank: 3, Name: "third"}}

	res := AssembleResult(DefaultChartURL, f, Diagnostics{}, movies)
	require.Equal(t, 2, res.Count)
	require.Len(t, res.Movies, 2)
	require.Equal(t, "first", res.Movies[0].Name)
	require.Equal(t, "second", res.Movies[1].Name)
}

func TestAssembleResultShortList(t *testing.T) {
	t.Parallel()

	f := Filters{Limit: 50, Sort: SortRanking, Direction: DirectionDesc}
	res := AssembleResult(DefaultChartURL, f, Diagnostics{}, []Movie{{Rank: 1}})
	require.Equal(t, 1, res.Count)
	require.Len(t, res.Movies, 1)
}

func TestAssembleResultNilMovies(t *testing.T) {
	t.Parallel()

	f := Filters{Limit: 50, Sort: SortRanking, Direction: DirectionDesc}
	res := AssembleResult(DefaultChartURL, f, Diagnostics{}, nil)
	require.NotNil(t, res.Movies)
	require.Equal(t, 0, res.Count)

	payload, err := json.Marshal(res)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"movies":[]`)
	require.NotContains(t, string(payload), `"movies":null`)
}

func TestResultJSONShape(t *testing.T) {
	t.Parallel()

	f := Filters{Limit: 1, Sort: SortUserRating, Direction: DirectionAsc}
	d := Diagnostics{HTTPStatus: 200, HTMLLength: 123456, LDJSONBlocks: 3}
	movies := []Movie{{
		Rank:        1,
		URL:         "https://www.imdb.com/title/tt0111161/",
		Name:        "The Shawshank Redemption",
		RatingValue: json.Number("9.3"),
	}}

	payload, err := json.Marshal(AssembleResult("https://www.imdb.com/chart/top/", f, d, movies))
	require.NoError(t, err)

	body := string(payload)
	require.Contains(t, body, `"filters":{"limit":1,"sort":"USER_RATING","direction":"asc"}`)
	require.Contains(t, body, `"diagnostics":{"http_status":200,"html_length":123456,"ldjson_blocks":3}`)
	require.Contains(t, body, `"rank":1`)
	require.Contains(t, body, `"ratingValue":9.3`)
	require.NotContains(t, body, `"description"`, "absent fields stay out of the payload")
	require.NotContains(t, body, `"alternateName"`)
}
