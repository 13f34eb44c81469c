package chart

import "strconv"

// DefaultChartURL is the canonical Top 250 chart page. The regional path
// prefix keeps titles in their Spanish release form, which is the chart the
// control panel links out to.
const DefaultChartURL = "https://www.imdb.com/es-es/chart/top/?ref_=hm_nv_menu"

// Bounds applied while normalizing the limit parameter.
const (
	DefaultLimit = 50
	MinLimit     = 1
	MaxLimit     = 250
)

// SortOptions maps each sort key to the label shown in the control panel.
// Render order comes from SortKeys.
var SortOptions = map[SortKey]string{
	SortRanking:         "Ranking (default)",
	SortUserRating:      "IMDb rating",
	SortReleaseDate:     "Release date",
	SortUserRatingCount: "Rating count",
	SortTitleRegional:   "Title (regional)",
	SortPopularity:      "Popularity",
	SortRuntime:         "Runtime",
}

// SortKeys lists the sort keys in control panel display order.
var SortKeys = []SortKey{
	SortRanking,
	SortUserRating,
	SortReleaseDate,
	SortUserRatingCount,
	SortTitleRegional,
	SortPopularity,
	SortRuntime,
}

// sortParams maps sort keys to the query parameter value IMDb expects.
// RANKING is absent on purpose: the default chart carries no sort parameter.
var sortParams = map[SortKey]string{
	SortUserRating:      "user_rating",
	SortReleaseDate:     "release_date",
	SortUserRatingCount: "user_rating_count",
	SortTitleRegional:   "title_regional",
	SortPopularity:      "popularity",
	SortRuntime:         "runtime",
}

// NormalizeFilters coerces raw request values into a valid Filters. Every
// malformed or unknown value falls back to its default, so normalization
// never fails.
func NormalizeFilters(limit, sort, direction string) Filters {
	return Filters{
		Limit:     normalizeLimit(limit),
		Sort:      normalizeSort(sort),
		Direction: normalizeDirection(direction),
	}
}

func normalizeLimit(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return DefaultLimit
	}
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

func normalizeSort(value string) SortKey {
	if _, ok := SortOptions[SortKey(value)]; ok {
		return SortKey(value)
	}
	return SortRanking
}

func normalizeDirection(value string) Direction {
	switch Direction(value) {
	case DirectionAsc, DirectionDesc:
		return Direction(value)
	default:
		return DirectionDesc
	}
}
