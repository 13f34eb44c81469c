// Package chart defines the Top 250 extraction domain: filter normalization,
// chart URL construction, and the merge step that joins canonical ranks with
// the structured-data payload.
package chart

import "encoding/json"

// SortKey identifies one of the supported chart sort orders.
type SortKey string

// Sort keys accepted by the control panel and API.
const (
	SortRanking         SortKey = "RANKING"
	SortUserRating      SortKey = "USER_RATING"
	SortReleaseDate     SortKey = "RELEASE_DATE"
	SortUserRatingCount SortKey = "USER_RATING_COUNT"
	SortTitleRegional   SortKey = "TITLE_REGIONAL"
	SortPopularity      SortKey = "POPULARITY"
	SortRuntime         SortKey = "RUNTIME"
)

// Direction orders a sorted chart.
type Direction string

// Supported sort directions.
const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// Filters captures the normalized parameters for one chart extraction.
// Construct values through NormalizeFilters; zero values are not meaningful.
type Filters struct {
	Limit     int       `json:"limit"`
	Sort      SortKey   `json:"sort"`
	Direction Direction `json:"direction"`
}

// Movie is one merged chart entry. Rank is always set; the remaining fields
// mirror the structured-data payload and disappear from the JSON form when
// the source lacks them. RatingValue and RatingCount keep the source's
// numeric text so re-encoding does not drift.
type Movie struct {
	Rank          int         `json:"rank"`
	URL           string      `json:"url,omitempty"`
	Name          string      `json:"name,omitempty"`
	AlternateName string      `json:"alternateName,omitempty"`
	Description   string      `json:"description,omitempty"`
	Image         string      `json:"image,omitempty"`
	RatingValue   json.Number `json:"ratingValue,omitempty"`
	RatingCount   json.Number `json:"ratingCount,omitempty"`
	ContentRating string      `json:"contentRating,omitempty"`
	Genre         any         `json:"genre,omitempty"`
	Duration      string      `json:"duration,omitempty"`
}

// Diagnostics reports observations about the final fetched page.
type Diagnostics struct {
	HTTPStatus   int `json:"http_status"`
	HTMLLength   int `json:"html_length"`
	LDJSONBlocks int `json:"ldjson_blocks"`
}

// Result is the full outcome of one chart extraction. Count always equals
// len(Movies).
type Result struct {
	URL         string      `json:"url"`
	Filters     Filters     `json:"filters"`
	Diagnostics Diagnostics `json:"diagnostics"`
	Count       int         `json:"count"`
	Movies      []Movie     `json:"movies"`
}
