package response

import "net/http"

// HTTPError is a structured error rendered by the JSON error handler.
type HTTPError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewHTTPError creates a 500 error with a custom message.
func NewHTTPError(message string) HTTPError {
	return ErrInternalServerError.WithMessage(message)
}

func (e HTTPError) Error() string {
	return e.Message
}

// StatusCode lets the router's default handler pick the right status.
func (e HTTPError) StatusCode() int {
	return e.Status
}

// WithMessage returns a copy of the error with a custom message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	e.Details = details
	return e
}

// WithError returns a copy of the error carrying err as the "cause" detail.
func (e HTTPError) WithError(err error) HTTPError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details["cause"] = err.Error()
	e.Details = details
	return e
}

func httpError(status int, code string) HTTPError {
	return HTTPError{Status: status, Code: code, Message: http.StatusText(status)}
}

var (
	ErrBadRequest            = httpError(http.StatusBadRequest, "bad_request")
	ErrUnauthorized          = httpError(http.StatusUnauthorized, "unauthorized")
	ErrForbidden             = httpError(http.StatusForbidden, "forbidden")
	ErrNotFound              = httpError(http.StatusNotFound, "not_found")
	ErrMethodNotAllowed      = httpError(http.StatusMethodNotAllowed, "method_not_allowed")
	ErrRequestTimeout        = httpError(http.StatusRequestTimeout, "request_timeout")
	ErrConflict              = httpError(http.StatusConflict, "conflict")
	ErrRequestEntityTooLarge = httpError(http.StatusRequestEntityTooLarge, "request_entity_too_large")
	ErrUnsupportedMediaType  = httpError(http.StatusUnsupportedMediaType, "unsupported_media_type")
	ErrUnprocessableEntity   = httpError(http.StatusUnprocessableEntity, "unprocessable_entity")
	ErrTooManyRequests       = httpError(http.StatusTooManyRequests, "too_many_requests")
	ErrInternalServerError   = httpError(http.StatusInternalServerError, "internal_server_error")
	ErrServiceUnavailable    = httpError(http.StatusServiceUnavailable, "service_unavailable")
	ErrInsufficientStorage   = httpError(http.StatusInsufficientStorage, "insufficient_storage")
)

var httpErrorsByStatus = map[int]HTTPError{
	http.StatusBadRequest:            ErrBadRequest,
	http.StatusUnauthorized:          ErrUnauthorized,
	http.StatusForbidden:             ErrForbidden,
	http.StatusNotFound:              ErrNotFound,
	http.StatusMethodNotAllowed:      ErrMethodNotAllowed,
	http.StatusRequestTimeout:        ErrRequestTimeout,
	http.StatusConflict:              ErrConflict,
	http.StatusRequestEntityTooLarge: ErrRequestEntityTooLarge,
	http.StatusUnsupportedMediaType:  ErrUnsupportedMediaType,
	http.StatusUnprocessableEntity:   ErrUnprocessableEntity,
	http.StatusTooManyRequests:       ErrTooManyRequests,
	http.StatusInternalServerError:   ErrInternalServerError,
	http.StatusServiceUnavailable:    ErrServiceUnavailable,
	http.StatusInsufficientStorage:   ErrInsufficientStorage,
}
