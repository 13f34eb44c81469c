package fetch

import "fmt"

// Error reports a failed chart retrieval. StatusCode is zero when the
// failure happened below HTTP.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }
