// Package logger builds slog loggers and provides attribute helpers with a
// nil-safe empty-Attr pattern:
//
//	log := logger.New(logger.WithProduction("uploadgate"))
//	log.Error("chunk append failed", logger.Error(err), logger.Filename(name), logger.Chunk(3, 10))
//
// Context extractors attach request-scoped attributes (request id, session
// id) to every *Context call.
package logger
