// Package response provides handler.Response constructors for plain text,
// JSON and errors, plus decorators that adjust headers before rendering.
//
//	return response.NoCache(response.JSON(payload))
//
// Error handlers (ErrorHandler, JSONErrorHandler) plug into the router and
// translate errors to HTTPError values.
package response
