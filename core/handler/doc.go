// Package handler defines the contracts shared by the router, middlewares and
// endpoint handlers.
//
// A handler receives a request-scoped Context and returns a Response. The
// Response is a deferred renderer: it runs after the middleware chain has
// unwound, which lets middlewares (sessions, request ids, logging) decorate
// headers before anything is written.
//
//	func ping(ctx *router.Context) handler.Response {
//		return response.String("pong")
//	}
//
// Errors returned by a Response are passed to the router's ErrorHandler.
package handler
