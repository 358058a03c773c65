package session

import "time"

// Config holds session manager configuration.
type Config struct {
	// TTL is the idle timeout.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	// TouchInterval throttles expiration updates; 0 extends on every request.
	TouchInterval time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		TTL:           24 * time.Hour,
		TouchInterval: 5 * time.Minute,
	}
}

// NewFromConfig creates a Manager backed by store. Non-positive values fall
// back to DefaultConfig.
func NewFromConfig[Data any](cfg Config, store Store[Data]) (*Manager[Data], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.TouchInterval < 0 {
		cfg.TouchInterval = def.TouchInterval
	}
	return NewManager(store, cfg.TTL, cfg.TouchInterval), nil
}
