package session

import "errors"

var (
	ErrExpired          = errors.New("session has expired")
	ErrNotFound         = errors.New("session not found")
	ErrNotAuthenticated = errors.New("authentication failed")
	ErrMissingIP        = errors.New("IP address is required")
	ErrTokenGeneration  = errors.New("failed to generate token")
	ErrSaveSession      = errors.New("failed to save session")
	ErrDeleteSession    = errors.New("failed to delete session")
	ErrNilStore         = errors.New("session store is required")
)
