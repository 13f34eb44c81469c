package chart

// AssembleResult packs one extraction run into the response envelope.
// Records beyond the limit are cut off without reordering, and Count always
// matches the returned slice.
func AssembleResult(url string, f Filters, d Diagnostics, movies []Movie) Result {
	if movies == nil {
		movies = []Movie{}
	}
	if len(movies) > f.Limit {
		movies = movies[:f.Limit]
	}
	return Result{
		URL:         url,
		Filters:     f,
		Diagnostics: d,
		Count:       len(movies),
		Movies:      movies,
	}
}
