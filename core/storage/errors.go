package storage

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid storage configuration")
	ErrInvalidPath        = errors.New("invalid storage path")
	ErrFileNotFound       = errors.New("file not found")
	ErrFailedToOpenFile   = errors.New("failed to open file")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrRequestTimeout     = errors.New("storage request timeout")
	ErrServiceUnavailable = errors.New("storage service unavailable")
	ErrInvalidObjectState = errors.New("invalid object state")
	ErrOperationTimeout   = errors.New("storage operation timeout")
	ErrOperationCanceled  = errors.New("storage operation canceled")
)
