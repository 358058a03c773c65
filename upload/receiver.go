package upload

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/uploadgate/core/logger"
	"github.com/dmitrymomot/uploadgate/core/storage"
)

// TracerName is the instrumentation name of the receiver's tracer.
const TracerName = "github.com/dmitrymomot/uploadgate/upload"

// Outcome is the result of one Receive call. State is returned on failure
// too: stale chunk sessions are dropped before the error happens.
type Outcome struct {
	State   SessionData
	Changed bool
	// Path is the final file when Finalized, the partial file otherwise.
	Path      string
	Written   int64
	Finalized bool
	// Duplicate is set when the chunk was already committed and nothing
	// was written.
	Duplicate bool
}

// Receiver runs the upload pipeline for one request: policy, extension
// check, directory, append, finalize.
type Receiver struct {
	policies  *PolicyResolver
	paths     *PathResolver
	validator *FileValidator
	assembler *Assembler

	users       UserSource
	locker      Locker
	lockTimeout time.Duration
	retention   time.Duration
	store       *storage.Local
	mirror      storage.Mirror
	metrics     *Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithLocker sets the lock used to serialize chunks of one upload.
func WithLocker(l Locker) Option {
	return func(r *Receiver) {
		if l != nil {
			r.locker = l
		}
	}
}

// WithLockTimeout bounds the wait for the upload lock.
func WithLockTimeout(d time.Duration) Option {
	return func(r *Receiver) {
		if d > 0 {
			r.lockTimeout = d
		}
	}
}

// WithRetention sets how long chunk sessions stay in session state after
// their last request.
func WithRetention(d time.Duration) Option {
	return func(r *Receiver) {
		if d > 0 {
			r.retention = d
		}
	}
}

// WithMirror replicates finished files. store maps local paths to mirror
// keys.
func WithMirror(store *storage.Local, m storage.Mirror) Option {
	return func(r *Receiver) {
		if store != nil && m != nil {
			r.store = store
			r.mirror = m
		}
	}
}

// WithMetrics records request outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Receiver) { r.metrics = m }
}

// WithLogger sets the logger for completed and rejected uploads.
func WithLogger(l *slog.Logger) Option {
	return func(r *Receiver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracer sets the tracer for the "upload.receive" span. The default is
// otel.Tracer, a no-op until the embedding program installs a provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Receiver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Receiver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReceiver wires the pipeline stages.
func NewReceiver(policies *PolicyResolver, paths *PathResolver, validator *FileValidator, opts ...Option) *Receiver {
	r := &Receiver{
		policies:    policies,
		paths:       paths,
		validator:   validator,
		assembler:   NewAssembler(),
		locker:      NewMemoryLocker(),
		lockTimeout: 30 * time.Second,
		retention:   24 * time.Hour,
		mirror:      storage.NopMirror{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:      otel.Tracer(TracerName),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Receive processes req against the session state. scope namespaces the
// upload lock, normally the session id.
func (r *Receiver) Receive(ctx context.Context, scope string, req Request, state SessionData) (Outcome, error) {
	ctx, span := r.tracer.Start(ctx, "upload.receive", trace.WithAttributes(
		attribute.Int64("upload.config_uid", req.ConfigUID),
		attribute.String("upload.filename", req.Filename),
		attribute.Int("upload.chunk", req.Chunk),
		attribute.Int("upload.chunks", req.Chunks),
	))
	defer span.End()

	out, err := r.receive(ctx, scope, req, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindName(err))
		r.Reject(ctx, req, err)
		return out, err
	}

	span.SetAttributes(
		attribute.Int64("upload.written", out.Written),
		attribute.Bool("upload.finalized", out.Finalized),
	)
	switch {
	case out.Duplicate:
		r.metrics.observe(OutcomeDuplicate, 0)
	case out.Finalized:
		r.metrics.observe(OutcomeCompleted, out.Written)
		r.logger.InfoContext(ctx, "upload completed",
			logger.ConfigUID(req.ConfigUID),
			logger.Filename(req.Filename),
			logger.Chunk(req.Chunk, req.Chunks),
			slog.String("path", out.Path),
		)
	default:
		r.metrics.observe(OutcomeChunk, out.Written)
	}
	return out, nil
}

// Reject logs and counts a failed request.
func (r *Receiver) Reject(ctx context.Context, req Request, err error) {
	code, _ := ErrorCode(err)
	kind := KindName(err)
	r.metrics.reject(kind)
	r.logger.WarnContext(ctx, "upload rejected",
		logger.ConfigUID(req.ConfigUID),
		logger.Filename(req.Filename),
		logger.Chunk(req.Chunk, req.Chunks),
		logger.Kind(kind),
		logger.UploadCode(code),
		logger.Error(err),
	)
}

func (r *Receiver) receive(ctx context.Context, scope string, req Request, state SessionData) (Outcome, error) {
	out := Outcome{State: state.Clone()}
	if out.State.pruneUploads(r.now(), r.retention) {
		out.Changed = true
	}

	policy, err := r.policies.Resolve(ctx, req.ConfigUID, out.State.User)
	if err != nil {
		return out, err
	}
	if err := r.validator.CheckExtension(req.Filename, policy); err != nil {
		return out, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	unlock, err := r.locker.Lock(lockCtx, scope+"/"+req.UploadKey())
	cancel()
	if err != nil {
		return out, newError(ErrSequence, CodeDefault, MsgLockTimeout, err)
	}
	defer unlock()

	dir, offset, err := r.plan(req, &out)
	if err != nil || out.Duplicate {
		return out, err
	}
	if dir == "" {
		if dir, err = r.paths.Resolve(policy, out.State.User); err != nil {
			return out, err
		}
	}

	res, err := r.assembler.Append(ctx, AppendParams{
		Dir:      dir,
		Filename: req.Filename,
		Offset:   offset,
		Finalize: req.Final(),
		Source:   req.Source,
	})
	if err != nil {
		return out, err
	}
	out.Path = res.Path
	out.Written = res.Written
	out.Finalized = res.Finalized

	key := req.UploadKey()
	if req.Chunked() {
		out.State.setUpload(key, ChunkSession{
			Directory: dir,
			Filename:  req.Filename,
			Total:     req.Chunks,
			NextChunk: req.Chunk + 1,
			Offset:    res.Size,
			Completed: res.Finalized,
			UpdatedAt: r.now(),
		})
		out.Changed = true
	}
	if !res.Finalized {
		return out, nil
	}

	if err := r.finalize(ctx, policy, res.Path, &out); err != nil {
		if out.State.dropUpload(key) {
			out.Changed = true
		}
		return out, err
	}
	return out, nil
}

// plan decides where a chunk goes. It returns the directory to reuse (empty
// for a fresh one) and the committed offset, or marks out as a duplicate.
func (r *Receiver) plan(req Request, out *Outcome) (string, int64, error) {
	if !req.Chunked() {
		return "", 0, nil
	}
	if req.Chunk < 0 || req.Chunk >= req.Chunks {
		return "", 0, newError(ErrSequence, CodeDefault, MsgOutOfOrder, nil)
	}

	key := req.UploadKey()
	prior, ok := out.State.Uploads[key]
	sameUpload := ok && prior.Total == req.Chunks && prior.Filename == req.Filename

	if ok && prior.Completed {
		// A repeat of a committed chunk is acknowledged as is; chunk 0
		// starts the next upload under the same key.
		if sameUpload && req.Chunk > 0 {
			out.Duplicate = true
			out.Path = FinalPath(prior.Directory, prior.Filename)
			return "", 0, nil
		}
		out.State.dropUpload(key)
		out.Changed = true
		ok = false
	}

	if ok && !r.paths.Reusable(prior, req.Filename) {
		out.State.dropUpload(key)
		out.Changed = true
		ok = false
	}

	switch {
	case ok && req.Chunk == 0:
		return prior.Directory, 0, nil
	case ok && sameUpload && req.Chunk < prior.NextChunk:
		out.Duplicate = true
		out.Path = PartPath(prior.Directory, prior.Filename)
		return "", 0, nil
	case ok && sameUpload && req.Chunk == prior.NextChunk:
		return prior.Directory, prior.Offset, nil
	case !ok && req.Chunk == 0:
		return "", 0, nil
	default:
		return "", 0, newError(ErrSequence, CodeDefault, MsgOutOfOrder, nil)
	}
}

// finalize checks content, fixes permissions, records the path and mirrors
// the file. Only content rejection fails the request.
func (r *Receiver) finalize(ctx context.Context, p Policy, path string, out *Outcome) error {
	if p.CheckMimeType {
		if err := r.validator.VerifyContent(path); err != nil {
			return err
		}
	}

	if err := storage.FixPermissions(path); err != nil {
		r.logger.WarnContext(ctx, "failed to fix file permissions", slog.String("path", path), logger.Error(err))
	}

	if p.PersistPathsInSession {
		out.State.Files = append(out.State.Files, path)
		out.Changed = true
	}

	if r.store == nil {
		return nil
	}
	key, err := r.store.Key(path)
	if err != nil {
		r.logger.WarnContext(ctx, "file outside storage root, not mirrored", slog.String("path", path))
		return nil
	}
	if err := r.mirror.Put(ctx, key, path); err != nil {
		r.metrics.mirrorFailed()
		r.logger.ErrorContext(ctx, "failed to mirror upload", slog.String("key", key), logger.Error(err))
	}
	return nil
}
