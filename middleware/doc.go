// Package middleware provides typed HTTP middlewares for core/router.
//
// Every middleware is generic over the handler context and follows the same
// shape: a zero-config constructor plus a WithConfig variant whose Config
// carries an optional Skip predicate.
//
//	r := router.New[*router.Context](
//		router.WithMiddleware(
//			middleware.RequestID[*router.Context](),
//			middleware.ClientIP[*router.Context](),
//			middleware.LoggingWithLogger[*router.Context](log),
//		),
//	)
//
// Available middlewares: RequestID, ClientIP, Logging, BodyLimit, Metrics
// and Session.
package middleware
