package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server address is required")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrListen               = errors.New("failed to bind listener")
	ErrShutdown             = errors.New("server shutdown error")
	ErrLoadCertificate      = errors.New("failed to load certificate")
)
