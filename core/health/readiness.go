package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/core/logger"
	"github.com/dmitrymomot/uploadgate/core/response"
)

// DefaultTimeout bounds the whole readiness check.
const DefaultTimeout = 5 * time.Second

// Check is a named dependency check.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Result is the readiness response body.
type Result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Readiness runs every check concurrently within DefaultTimeout. It answers
// 200 when all pass and 503 listing the failures otherwise.
func Readiness[C handler.Context](log *slog.Logger, checks ...Check) handler.HandlerFunc[C] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx C) handler.Response {
		checkCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			failed bool
			result = Result{Status: "ready", Checks: make(map[string]string, len(checks))}
		)

		var g errgroup.Group
		for _, c := range checks {
			g.Go(func() error {
				status := "ok"
				if err := c.Fn(checkCtx); err != nil {
					log.ErrorContext(ctx, "readiness check failed",
						logger.Component(c.Name),
						logger.Error(err),
					)
					status = "failed"
				}

				mu.Lock()
				defer mu.Unlock()
				result.Checks[c.Name] = status
				if status != "ok" {
					failed = true
				}
				return nil
			})
		}
		_ = g.Wait()

		if failed {
			result.Status = "unavailable"
			return response.JSONWithStatus(result, http.StatusServiceUnavailable)
		}
		return response.JSON(result)
	}
}
