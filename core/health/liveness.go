package health

import (
	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/core/response"
)

// Liveness reports that the process is up. It checks no dependencies.
func Liveness[C handler.Context](C) handler.Response {
	return response.String("ALIVE")
}
