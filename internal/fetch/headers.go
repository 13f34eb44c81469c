package fetch

import "net/http"

// DefaultUserAgent mirrors a mainstream desktop Chrome build. The chart
// endpoint only serves full markup to browser-looking clients.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

const acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// Locale preferences for the two attempts. The first asks for the regional
// edition; the retry falls back to English, which renders more reliably.
const (
	PrimaryLocale = "es-ES,es;q=0.9,en;q=0.8"
	RetryLocale   = "en-US,en;q=0.9"
)

// BrowserHeaders builds the header set for one attempt. An empty userAgent
// selects DefaultUserAgent.
func BrowserHeaders(userAgent, locale string) http.Header {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", acceptHTML)
	h.Set("Accept-Language", locale)
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	return h
}
