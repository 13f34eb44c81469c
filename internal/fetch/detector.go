package fetch

import "net/http"

// DefaultMinBodyBytes is the smallest body accepted as a fully rendered
// chart page. Real chart pages run to hundreds of kilobytes, so anything
// smaller is treated as an interstitial or a stub.
const DefaultMinBodyBytes = 10000

// Retry reasons reported by the detector.
const (
	ReasonStatus202 = "status_202"
	ReasonEmptyBody = "empty_body"
	ReasonShortBody = "short_body"
)

// IncompleteDetector decides whether a response looks like a page served
// before the chart content finished rendering.
type IncompleteDetector struct {
	MinBodyBytes int
}

// NewIncompleteDetector builds a detector, falling back to
// DefaultMinBodyBytes when the threshold is unset.
func NewIncompleteDetector(minBodyBytes int) IncompleteDetector {
	if minBodyBytes <= 0 {
		minBodyBytes = DefaultMinBodyBytes
	}
	return IncompleteDetector{MinBodyBytes: minBodyBytes}
}

// Reason returns why the response looks incomplete, or an empty string for
// a complete one. Checks run in order: accepted status, empty body, short
// body.
func (d IncompleteDetector) Reason(resp Response) string {
	switch {
	case resp.StatusCode == http.StatusAccepted:
		return ReasonStatus202
	case len(resp.Body) == 0:
		return ReasonEmptyBody
	case len(resp.Body) < d.MinBodyBytes:
		return ReasonShortBody
	default:
		return ""
	}
}

// Incomplete reports whether the response warrants the single retry.
func (d IncompleteDetector) Incomplete(resp Response) bool {
	return d.Reason(resp) != ""
}
