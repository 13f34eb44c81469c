package chart

// BuildChartURL renders the chart URL for the given filters. The default
// ranking keeps the canonical URL untouched; every other sort appends IMDb's
// sort parameter, comma percent-encoded the way the site itself does it.
func BuildChartURL(f Filters) string {
	if f.Sort == SortRanking {
		return DefaultChartURL
	}
	param, ok := sortParams[f.Sort]
	if !ok {
		return DefaultChartURL
	}
	return DefaultChartURL + "&sort=" + param + "%2C" + string(f.Direction)
}
