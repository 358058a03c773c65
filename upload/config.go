package upload

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"github.com/dmitrymomot/uploadgate/core/storage"
)

// Config holds the upload endpoint settings.
type Config struct {
	// StorageRoot is the base for relative upload paths and the first
	// allowed root.
	StorageRoot string `env:"UPLOAD_STORAGE_ROOT,required"`
	// AllowedRoots are further directories absolute upload paths may use.
	AllowedRoots []string `env:"UPLOAD_ALLOWED_ROOTS" envSeparator:","`
	// MaxMemory is the part of a multipart body kept in memory.
	MaxMemory int64 `env:"UPLOAD_MAX_MEMORY" envDefault:"8388608"`
	// MaxRequestSize caps one request body, i.e. one chunk.
	MaxRequestSize int64         `env:"UPLOAD_MAX_REQUEST_SIZE" envDefault:"209715200"`
	LockTimeout    time.Duration `env:"UPLOAD_LOCK_TIMEOUT" envDefault:"30s"`
	// Retention bounds how long chunk progress stays in a session.
	Retention   time.Duration `env:"UPLOAD_SESSION_RETENTION" envDefault:"24h"`
	TimeZone    string        `env:"UPLOAD_TIMEZONE" envDefault:"UTC"`
	DenyPattern string        `env:"UPLOAD_DENY_PATTERN"`
}

// JanitorConfig controls the cleanup of abandoned partial files.
type JanitorConfig struct {
	// Interval between sweeps; zero disables the background loop.
	Interval   time.Duration `env:"UPLOAD_JANITOR_INTERVAL" envDefault:"1h"`
	PartMaxAge time.Duration `env:"UPLOAD_PART_MAX_AGE" envDefault:"24h"`
}

// DefaultConfig returns the env defaults without a storage root.
func DefaultConfig() Config {
	return Config{
		MaxMemory:      8 << 20,
		MaxRequestSize: 200 << 20,
		LockTimeout:    30 * time.Second,
		Retention:      24 * time.Hour,
		TimeZone:       "UTC",
	}
}

// DefaultJanitorConfig returns an hourly sweep of parts older than a day.
func DefaultJanitorConfig() JanitorConfig {
	return JanitorConfig{
		Interval:   time.Hour,
		PartMaxAge: 24 * time.Hour,
	}
}

// ErrNilConfigSource is returned when a Receiver is built without a source.
var ErrNilConfigSource = errors.New("upload config source is nil")

// Roots returns the storage root followed by the allowed roots, cleaned and
// without duplicates.
func (c Config) Roots() []string {
	roots := make([]string, 0, len(c.AllowedRoots)+1)
	for _, r := range append([]string{c.StorageRoot}, c.AllowedRoots...) {
		if r == "" {
			continue
		}
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		roots = append(roots, filepath.Clean(r))
	}
	return lo.Uniq(roots)
}

// NewFromConfig builds a Receiver from cfg. The storage root must exist.
func NewFromConfig(cfg Config, source ConfigSource, opts ...Option) (*Receiver, error) {
	if source == nil {
		return nil, ErrNilConfigSource
	}
	root, err := storage.NewLocal(cfg.StorageRoot)
	if err != nil {
		return nil, err
	}
	validator, err := NewFileValidator(cfg.DenyPattern)
	if err != nil {
		return nil, err
	}

	roots := append([]string{root.Root()}, cfg.AllowedRoots...)
	base := []Option{
		WithLockTimeout(cfg.LockTimeout),
		WithRetention(cfg.Retention),
	}
	return NewReceiver(
		NewPolicyResolver(source, roots...),
		NewPathResolver(cfg.TimeZone),
		validator,
		append(base, opts...)...,
	), nil
}
