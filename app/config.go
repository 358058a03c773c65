package app

import (
	"github.com/dmitrymomot/uploadgate/core/cookie"
	"github.com/dmitrymomot/uploadgate/core/server"
	"github.com/dmitrymomot/uploadgate/core/session"
	"github.com/dmitrymomot/uploadgate/core/sessiontransport"
	"github.com/dmitrymomot/uploadgate/integration/database/redis"
	"github.com/dmitrymomot/uploadgate/integration/storage/s3"
	"github.com/dmitrymomot/uploadgate/upload"
	"github.com/dmitrymomot/uploadgate/upload/configstore"
)

// Config aggregates every component configuration. Postgres settings are
// loaded on demand, only when the config store driver needs a pool.
type Config struct {
	Server        server.Config
	Cookie        cookie.Config
	Session       session.Config
	SessionCookie sessiontransport.CookieConfig
	Upload        upload.Config
	Janitor       upload.JanitorConfig
	ConfigStore   configstore.Config
	Redis         redis.Config
	S3            s3.Config

	AppName  string `env:"APP_NAME" envDefault:"uploadgate"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// RedisEnabled moves sessions and upload locks to Redis so several
	// instances can share one storage root.
	RedisEnabled     bool   `env:"REDIS_ENABLED" envDefault:"false"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"uploadgate"`
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
