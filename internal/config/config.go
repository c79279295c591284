package config

import (
	"time"
)

// Config holds runtime settings. Key names match the config.json written by
// earlier desktop releases so existing files load unchanged.
type Config struct {
	APIKey      string `yaml:"api_key"      json:"api_key"      env:"MILLKEEPER_API_KEY"`
	DatabaseURL string `yaml:"database_url" json:"database_url" env:"MILLKEEPER_DATABASE_URL"`
	Collection  string `yaml:"collection"   json:"collection"   env:"MILLKEEPER_COLLECTION"   env-default:"molitura"`
	ArchiveDB   string `yaml:"archive_db"   json:"archive_db"   env:"MILLKEEPER_ARCHIVE_DB"   env-default:"frantoio_archive.db"`

	// HybridDays and EuroPerKg are valid at 0; their defaults come from
	// Defaults, not env-default, which cleanenv applies over a zero.
	HybridDays    int     `yaml:"hybrid_days"    json:"hybrid_days"    env:"MILLKEEPER_HYBRID_DAYS"    env-description:"days back served from the live database (default 7)"`
	RetentionDays int     `yaml:"retention_days" json:"retention_days" env:"MILLKEEPER_RETENTION_DAYS" env-default:"7"`
	EuroPerKg     float64 `yaml:"euro_per_kg"    json:"euro_per_kg"    env:"MILLKEEPER_EURO_PER_KG"    env-description:"price per kg in euro (default 0.30)"`

	PollMs                int `yaml:"poll_ms"                 json:"poll_ms"                 env:"MILLKEEPER_POLL_MS"                 env-default:"3000"`
	MirrorIntervalMinutes int `yaml:"mirror_interval_minutes" json:"mirror_interval_minutes" env:"MILLKEEPER_MIRROR_INTERVAL_MINUTES" env-default:"5"`
	SyncTimeoutSeconds    int `yaml:"sync_timeout_seconds"    json:"sync_timeout_seconds"    env:"MILLKEEPER_SYNC_TIMEOUT_SECONDS"    env-default:"120"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" json:"request_timeout_seconds" env:"MILLKEEPER_REQUEST_TIMEOUT_SECONDS" env-default:"30"`

	Timezone string `yaml:"timezone" json:"timezone" env:"MILLKEEPER_TIMEZONE" env-default:"Europe/Rome"`

	Auth AuthConfig `yaml:"auth" json:"auth"`
	HTTP HTTPConfig `yaml:"http" json:"http"`
	Log  LogConfig  `yaml:"log"  json:"log"`
}

const (
	defaultHybridDays = 7
	defaultEuroPerKg  = 0.30
)

// Defaults returns a Config carrying the defaults that env-default tags
// cannot express.
func Defaults() Config {
	return Config{
		HybridDays: defaultHybridDays,
		EuroPerKg:  defaultEuroPerKg,
	}
}

// AuthConfig holds the account used to sign in. An empty password is
// prompted for on the terminal.
type AuthConfig struct {
	Email          string `yaml:"email"            json:"email"            env:"MILLKEEPER_EMAIL"`
	Password       string `yaml:"password"         json:"password"         env:"MILLKEEPER_PASSWORD"`
	IdentityURL    string `yaml:"identity_url"     json:"identity_url"     env:"MILLKEEPER_IDENTITY_URL"     env-default:"https://identitytoolkit.googleapis.com"`
	SecureTokenURL string `yaml:"secure_token_url" json:"secure_token_url" env:"MILLKEEPER_SECURE_TOKEN_URL" env-default:"https://securetoken.googleapis.com"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr" env:"MILLKEEPER_HTTP_ADDR" env-default:":8080"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `yaml:"format" json:"format" env:"MILLKEEPER_LOG_FORMAT" env-default:"text"`
	Level  string `yaml:"level"  json:"level"  env:"MILLKEEPER_LOG_LEVEL"  env-default:"info"`
}

// PollInterval is the day refresh interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollMs) * time.Millisecond
}

// MirrorInterval is the mirror and cleanup interval.
func (c *Config) MirrorInterval() time.Duration {
	return time.Duration(c.MirrorIntervalMinutes) * time.Minute
}

// SyncTimeout bounds one mirror and cleanup run.
func (c *Config) SyncTimeout() time.Duration {
	return time.Duration(c.SyncTimeoutSeconds) * time.Second
}

// RequestTimeout bounds one HTTP request to the remote services.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Overrides carries command-line values. Nil fields are left alone.
type Overrides struct {
	HybridDays    *int
	RetentionDays *int
	ArchiveDB     *string
	LogFormat     *string
	LogLevel      *string
	HTTPAddr      *string
}

// Apply overlays the set fields onto c.
func (o Overrides) Apply(c *Config) {
	if o.HybridDays != nil {
		c.HybridDays = *o.HybridDays
	}
	if o.RetentionDays != nil {
		c.RetentionDays = *o.RetentionDays
	}
	if o.ArchiveDB != nil {
		c.ArchiveDB = *o.ArchiveDB
	}
	if o.LogFormat != nil {
		c.Log.Format = *o.LogFormat
	}
	if o.LogLevel != nil {
		c.Log.Level = *o.LogLevel
	}
	if o.HTTPAddr != nil {
		c.HTTP.Addr = *o.HTTPAddr
	}
}
