package response

import (
	"net/http"

	"github.com/dmitrymomot/uploadgate/core/handler"
)

type writtenTracker interface {
	Written() bool
}

// Render executes resp against the context's writer. Render errors fall back
// to a plain 500 unless the response was already started.
func Render(ctx handler.Context, resp handler.Response) {
	w := ctx.ResponseWriter()
	if wt, ok := w.(writtenTracker); ok && wt.Written() {
		return
	}
	if err := resp(w, ctx.Request()); err != nil {
		if wt, ok := w.(writtenTracker); ok && wt.Written() {
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// String creates a text/plain response with 200 OK status.
func String(content string) handler.Response {
	return StringWithStatus(content, http.StatusOK)
}

// StringWithStatus creates a text/plain response with a custom status code.
func StringWithStatus(content string, status int) handler.Response {
	return BytesWithStatus([]byte(content), "text/plain; charset=utf-8", status)
}

// BytesWithStatus writes raw content with the given content type.
func BytesWithStatus(content []byte, contentType string, status int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if len(content) > 0 {
			_, err := w.Write(content)
			return err
		}
		return nil
	}
}

// NoContent creates a 204 No Content response.
func NoContent() handler.Response {
	return Status(http.StatusNoContent)
}

// Status creates an empty response with the specified status code.
func Status(code int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		if code == 0 {
			code = http.StatusOK
		}
		w.WriteHeader(code)
		return nil
	}
}
