package response

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/core/router"
)

type statusCode interface {
	StatusCode() int
}

// convertToHTTPError maps any error to an HTTPError, honouring HTTPError
// values, the StatusCode interface and the router's sentinel errors.
func convertToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	status := http.StatusInternalServerError
	var sc statusCode
	switch {
	case errors.As(err, &sc):
		status = sc.StatusCode()
	case errors.Is(err, router.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, router.ErrMethodNotAllowed):
		status = http.StatusMethodNotAllowed
	}

	base, ok := httpErrorsByStatus[status]
	if !ok {
		base = ErrInternalServerError
	}
	return base.WithError(err)
}

// ErrorHandler renders errors as plain text.
func ErrorHandler[C handler.Context](ctx C, err error) {
	httpErr := convertToHTTPError(err)
	Render(ctx, StringWithStatus(httpErr.Error(), httpErr.Status))
}

// JSONErrorHandler renders errors as JSON HTTPError objects.
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	httpErr := convertToHTTPError(err)
	Render(ctx, JSONWithStatus(httpErr, httpErr.Status))
}
