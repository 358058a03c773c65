package response

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/uploadgate/core/handler"
)

// LegacyExpires is the fixed past date sent with no-cache responses.
const LegacyExpires = "Mon, 26 Jul 1997 05:00:00 GMT"

// WithHeaders wraps a response with custom HTTP headers set before rendering.
func WithHeaders(resp handler.Response, headers map[string]string) handler.Response {
	if resp == nil || len(headers) == 0 {
		return resp
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		return resp(w, r)
	}
}

// NoCache wraps a response with the full set of cache-busting headers
// understood by old browsers and intermediaries, including the IE-specific
// post-check/pre-check directive as a second Cache-Control value.
func NoCache(resp handler.Response) handler.Response {
	return NoCacheAt(resp, time.Now)
}

// NoCacheAt is NoCache with an injectable clock for Last-Modified.
func NoCacheAt(resp handler.Response, now func() time.Time) handler.Response {
	if resp == nil {
		return nil
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		h := w.Header()
		h.Set("Expires", LegacyExpires)
		h.Set("Last-Modified", now().UTC().Format(http.TimeFormat))
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Add("Cache-Control", "post-check=0, pre-check=0")
		h.Set("Pragma", "no-cache")
		return resp(w, r)
	}
}
