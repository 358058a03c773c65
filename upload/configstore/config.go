package configstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/uploadgate/upload"
)

// Supported values of Config.Driver.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

var ErrUnknownDriver = errors.New("unknown upload config driver")

// Config selects where upload configurations come from.
type Config struct {
	Driver    string        `env:"UPLOAD_CONFIG_DRIVER" envDefault:"file"`
	File      string        `env:"UPLOAD_CONFIG_FILE" envDefault:"upload_configs.yaml"`
	CacheSize int           `env:"UPLOAD_CONFIG_CACHE_SIZE" envDefault:"256"`
	CacheTTL  time.Duration `env:"UPLOAD_CONFIG_CACHE_TTL" envDefault:"1m"`
}

func DefaultConfig() Config {
	return Config{
		Driver:    DriverFile,
		File:      "upload_configs.yaml",
		CacheSize: 256,
		CacheTTL:  time.Minute,
	}
}

// PoolFunc opens the database pool on demand.
type PoolFunc func(ctx context.Context) (*pgxpool.Pool, error)

// Sources are the configuration records and the users behind them.
type Sources struct {
	Configs upload.ConfigSource
	Users   upload.UserStore
}

// NewFromConfig builds the configured sources. connect is only called for
// the postgres driver. Postgres config lookups are cached; user lookups are
// not, so a disabled user is locked out immediately.
func NewFromConfig(ctx context.Context, cfg Config, connect PoolFunc) (Sources, error) {
	switch cfg.Driver {
	case DriverFile, "":
		mem, err := LoadFile(cfg.File)
		if err != nil {
			return Sources{}, err
		}
		return Sources{Configs: mem, Users: mem}, nil
	case DriverPostgres:
		if connect == nil {
			return Sources{}, fmt.Errorf("%w: postgres driver without connection", ErrUnknownDriver)
		}
		pool, err := connect(ctx)
		if err != nil {
			return Sources{}, err
		}
		db := NewPostgres(pool)
		return Sources{Configs: NewCached(db, cfg.CacheSize, cfg.CacheTTL), Users: db}, nil
	default:
		return Sources{}, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
