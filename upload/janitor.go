package upload

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/dmitrymomot/uploadgate/core/logger"
	"github.com/dmitrymomot/uploadgate/core/storage"
)

// SessionCleaner removes expired sessions.
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// SweepReport is the result of one janitor pass.
type SweepReport struct {
	Parts    int
	Sessions int64
}

// Janitor removes partial files abandoned by clients and expired sessions.
// Every upload root is swept, since absolute upload paths may land outside
// the storage root.
type Janitor struct {
	roots    []string
	sessions SessionCleaner
	cfg      JanitorConfig
	logger   *slog.Logger
}

// NewJanitor creates a janitor over roots, usually Config.Roots. sessions
// may be nil.
func NewJanitor(roots []string, sessions SessionCleaner, cfg JanitorConfig, log *slog.Logger) *Janitor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.PartMaxAge <= 0 {
		cfg.PartMaxAge = DefaultJanitorConfig().PartMaxAge
	}
	return &Janitor{roots: roots, sessions: sessions, cfg: cfg, logger: log}
}

// Sweep runs one pass. Errors from both steps are returned joined; a
// failing step does not stop the other.
func (j *Janitor) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	var partsErr error
	for _, root := range j.roots {
		n, err := j.sweepRoot(ctx, root)
		report.Parts += n
		partsErr = errors.Join(partsErr, err)
	}

	var sessErr error
	if j.sessions != nil {
		report.Sessions, sessErr = j.sessions.CleanupExpired(ctx)
	}

	return report, errors.Join(partsErr, sessErr)
}

// sweepRoot removes stale parts below root. A root that does not exist yet
// has nothing to sweep.
func (j *Janitor) sweepRoot(ctx context.Context, root string) (int, error) {
	local, err := storage.NewLocal(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return local.Sweep(ctx, PartSuffix, j.cfg.PartMaxAge)
}

// Run sweeps every Interval until ctx is done. It returns nil on
// cancellation so it fits an errgroup next to the HTTP server.
func (j *Janitor) Run(ctx context.Context) error {
	if j.cfg.Interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			report, err := j.Sweep(ctx)
			if err != nil {
				j.logger.ErrorContext(ctx, "janitor sweep failed", logger.Error(err))
			}
			j.logger.InfoContext(ctx, "janitor sweep finished",
				logger.Component("janitor"),
				logger.Count("parts", report.Parts),
				slog.Int64("sessions", report.Sessions),
				logger.Elapsed(start),
			)
		}
	}
}
