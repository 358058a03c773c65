// Package router provides a generic, type-safe HTTP router built on go-chi.
//
// Handlers receive a custom context type C and return a handler.Response.
// Middlewares are typed as well and are bound to a route when it is
// registered:
//
//	r := router.New[*router.Context](
//		router.WithErrorHandler(response.JSONErrorHandler[*router.Context]),
//	)
//	r.Use(middleware.RequestID[*router.Context]())
//	r.Post("/upload", uploadHandler)
//	r.Mount("/metrics", promhttp.Handler())
//
// Panics inside handlers are recovered and passed to the error handler as a
// PanicError unless the response has already been started.
package router
