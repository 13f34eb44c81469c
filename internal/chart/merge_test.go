package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filmoteca/chartfetch/internal/extract"
)

func listItem(item any) map[string]any {
	return map[string]any{"@type": "ListItem", "item": item}
}

func TestMergeRecordsFullItem(t *testing.T) {
	t.Parallel()

	index := extract.RankIndex{"tt0111161": 1}
	list := &extract.ItemList{Elements: []any{
		listItem(map[string]any{
			"url":           "https://www.imdb.com/title/tt0111161/",
			"name":          "The Shawshank Redemption",
			"alternateName": "Cadena perpetua",
			"description":   "Two imprisoned men bond over a number of years.",
			"image":         "https://m.media-amazon.com/images/M/shawshank.jpg",
			"aggregateRating": map[string]any{
				"ratingValue": json.Number("9.3"),
				"ratingCount": json.Number("2923647"),
			},
			"contentRating": "13",
			"genre":         "Drama",
			"duration":      "PT2H22M",
		}),
	}}

	movies, stats := MergeRecords(index, list)
	require.Len(t, movies, 1)
	require.Empty(t, stats.SkippedElements)
	require.Empty(t, stats.SkippedItems)
	require.Empty(t, stats.RankFallbacks)

	m := movies[0]
	require.Equal(t, 1, m.Rank)
	require.Equal(t, "https://www.imdb.com/title/tt0111161/", m.URL)
	require.Equal(t, "The Shawshank Redemption", m.Name)
	require.Equal(t, "Cadena perpetua", m.AlternateName)
	require.Equal(t, json.Number("9.3"), m.RatingValue)
	require.Equal(t, json.Number("2923647"), m.RatingCount)
	require.Equal(t, "13", m.ContentRating)
	require.Equal(t, "Drama", m.Genre)
	require.Equal(t, "PT2H22M", m.Duration)
}

func TestMergeRecordsPositionSurvivesSkips(t *testing.T) {
	t.Parallel()

	index := extract.RankIndex{"tt0068646": 42}
	list := &extract.ItemList{Elements: []any{
		listItem(map[string]any{"name": "no url, no canonical rank"}),
		"not an object",
		listItem("item is not an object"),
		listItem(map[string]any{
			"url":             "https://www.imdb.com/title/tt0068646/",
			"name":            "The Godfather",
			"aggregateRating": "not an object either",
		}),
	}}

	movies, stats := MergeRecords(index, list)
	require.Len(t, movies, 2)
	require.Equal(t, []int{2}, stats.SkippedElements)
	require.Equal(t, []int{3}, stats.SkippedItems)
	require.Equal(t, []int{1}, stats.RankFallbacks)

	require.Equal(t, 1, movies[0].Rank, "fallback rank keeps the list position")
	require.Equal(t, 42, movies[1].Rank, "canonical rank wins over position")
	require.Empty(t, movies[1].RatingValue, "non-object aggregate yields no rating")
	require.Empty(t, movies[1].RatingCount)
}

func TestMergeRecordsRankFallbackForUnknownTitle(t *testing.T) {
	t.Parallel()

	list := &extract.ItemList{Elements: []any{
		listItem(map[string]any{"url": "https://www.imdb.com/title/tt0050083/", "name": "12 Angry Men"}),
	}}

	movies, stats := MergeRecords(extract.RankIndex{}, list)
	require.Len(t, movies, 1)
	require.Equal(t, 1, movies[0].Rank)
	require.Equal(t, []int{1}, stats.RankFallbacks)
}

func TestMergeRecordsNilList(t *testing.T) {
	t.Parallel()

	movies, stats := MergeRecords(extract.RankIndex{"tt0111161": 1}, nil)
	require.NotNil(t, movies)
	require.Empty(t, movies)
	require.Empty(t, stats.SkippedElements)
	require.Empty(t, stats.SkippedItems)
	require.Empty(t, stats.RankFallbacks)
}

func TestMergeRecordsGenreListPassthrough(t *testing.T) {
	t.Parallel()

	list := &extract.ItemList{Elements: []any{
		listItem(map[string]any{
			"url":   "https://www.imdb.com/title/tt0068646/",
			"genre": []any{"Crime", "Drama"},
		}),
	}}

	movies, _ := MergeRecords(extract.RankIndex{"tt0068646": 2}, list)
	require.Len(t, movies, 1)
	require.Equal(t, []any{"Crime", "Drama"}, movies[0].Genre)
}
