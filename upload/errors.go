package upload

import (
	"errors"
	"fmt"
)

// JSON-RPC error codes returned to the uploader.
const (
	CodeDefault      = 100
	CodeInputStream  = 101
	CodeOutputStream = 102
	CodeTransport    = 103
)

// Error kinds. Every *Error wraps exactly one of them.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrAuthorization     = errors.New("authorization error")
	ErrPath              = errors.New("path error")
	ErrExtensionRejected = errors.New("extension rejected")
	ErrStream            = errors.New("stream error")
	ErrTransport         = errors.New("transport error")
	ErrValidation        = errors.New("validation error")
	ErrSequence          = errors.New("sequence error")
)

// ErrConfigNotFound is returned by a ConfigSource when no active record
// matches the identifier.
var ErrConfigNotFound = errors.New("upload config not found")

// Messages shown to the uploader.
const (
	MsgNoConfigID          = "No config record ID given."
	MsgConfigNotFound      = "Configuration record not found or invalid."
	MsgMissingExtensions   = "Missing allowed file extension configuration."
	MsgInvalidDirectory    = "Upload directory not valid."
	MsgSessionExpired      = "User session expired."
	MsgExtensionNotAllowed = "File extension is not allowed."
	MsgExtensionDenied     = "File extension is not allowed on this installation."
	MsgCreateDirectory     = "Failed to create upload directory."
	MsgOutputStream        = "Failed to open output stream."
	MsgInputStream         = "Failed to open input stream."
	MsgTransport           = "Failed to move uploaded file."
	MsgMimeNotAllowed      = "File mime type is not allowed."
	MsgOutOfOrder          = "Chunk received out of order."
	MsgLockTimeout         = "Upload is busy, retry the chunk."
	MsgInternal            = "Failed to process upload."
)

// Error is a terminal upload failure: a kind, the JSON-RPC code and
// message sent to the client, and the underlying cause if any.
type Error struct {
	Kind    error
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, code int, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Err: cause}
}

func configError(msg string, cause error) *Error {
	return newError(ErrConfiguration, CodeDefault, msg, cause)
}

func pathError(msg string, cause error) *Error {
	return newError(ErrPath, CodeDefault, msg, cause)
}

// KindName returns a short label for err's kind, used in logs and metrics.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrPath):
		return "path"
	case errors.Is(err, ErrExtensionRejected):
		return "extension"
	case errors.Is(err, ErrStream):
		return "stream"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrSequence):
		return "sequence"
	default:
		return "internal"
	}
}
