package chart

import (
	"encoding/json"

	"github.com/filmoteca/chartfetch/internal/extract"
)

// MergeStats records what the merge skipped or guessed, by 1-based list
// position. Positions keep counting across skipped entries so a fallback
// rank always reflects where the element sat in the source list.
type MergeStats struct {
	// SkippedElements lists positions whose element was not an object.
	SkippedElements []int
	// SkippedItems lists positions whose element lacked an object item.
	SkippedItems []int
	// RankFallbacks lists positions that used their list position as rank
	// because no canonical rank was known for the title.
	RankFallbacks []int
}

// MergeRecords joins the ranked-anchor index with the structured-data list
// into chart records. Input order is preserved and nothing is re-sorted;
// a nil list yields an empty, non-nil slice.
func MergeRecords(index extract.RankIndex, list *extract.ItemList) ([]Movie, MergeStats) {
	movies := []Movie{}
	var stats MergeStats
	if list == nil {
		return movies, stats
	}
	for i, element := range list.Elements {
		pos := i + 1
		obj, ok := element.(map[string]any)
		if !ok {
			stats.SkippedElements = append(stats.SkippedElements, pos)
			continue
		}
		item, ok := obj["item"].(map[string]any)
		if !ok {
			stats.SkippedItems = append(stats.SkippedItems, pos)
			continue
		}
		movie, fellBack := buildMovie(item, index, pos)
		if fellBack {
			stats.RankFallbacks = append(stats.RankFallbacks, pos)
		}
		movies = append(movies, movie)
	}
	return movies, stats
}

func buildMovie(item map[string]any, index extract.RankIndex, pos int) (Movie, bool) {
	aggregate, _ := item["aggregateRating"].(map[string]any)
	url := stringField(item, "url")

	rank := pos
	fellBack := true
	if id, ok := extract.DeriveID(url); ok {
		if canonical, known := index[id]; known {
			rank = canonical
			fellBack = false
		}
	}

	return Movie{
		Rank:          rank,
		URL:           url,
		Name:          stringField(item, "name"),
		AlternateName: stringField(item, "alternateName"),
		Description:   stringField(item, "description"),
		Image:         stringField(item, "image"),
		RatingValue:   numberField(aggregate, "ratingValue"),
		RatingCount:   numberField(aggregate, "ratingCount"),
		ContentRating: stringField(item, "contentRating"),
		Genre:         item["genre"],
		Duration:      stringField(item, "duration"),
	}, fellBack
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func numberField(obj map[string]any, key string) json.Number {
	n, _ := obj[key].(json.Number)
	return n
}
