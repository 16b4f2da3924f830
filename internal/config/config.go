// Package config loads application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverNone  = "none"
	DriverMySQL = "mysql"
	DriverMongo = "mongo"
)

// Config holds all runtime configuration values.
type Config struct {
	Env      string // application environment (dev, prod)
	Port     string // HTTP port to listen on
	LogLevel string
	// PublicBaseURL prefixes links handed to the front-end, such as
	// per-show calendar URLs.  Empty means relative links.
	PublicBaseURL string
	CORSOrigins   []string
	// SinkTimeout bounds each contact dispatch (persistence, notification).
	SinkTimeout time.Duration

	Store     StoreConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Calendar  CalendarConfig
	Notify    NotifyConfig
	Band      BandConfig
}

// StoreConfig selects where shows are read from and messages written to.
type StoreConfig struct {
	Driver string // none, mysql or mongo

	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string
	// DBMigrate creates missing tables on start.
	DBMigrate bool

	MongoURI string
	MongoDB  string

	// ShowsFile overrides the bundled fallback dataset.
	ShowsFile string
}

// CalendarConfig configures the ICS encoder.
type CalendarConfig struct {
	TZID      string
	BandName  string
	UIDDomain string
}

// NotifyConfig configures the notification sink and its consumer.
type NotifyConfig struct {
	RabbitURL string
	// Consumer runs the contact.submitted consumer inside the server.
	Consumer bool

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
	// ContactEmail receives notifications; defaults to SMTPFrom.
	ContactEmail string
	// PerMinute caps outgoing emails (0 = unlimited).
	PerMinute int
}

type loader struct {
	errs []error
}

// Load reads .env (when present) and the environment.  All problems are
// reported together.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	l := &loader{}

	cfg := Config{
		Env:           getenv("APP_ENV", "dev"),
		Port:          getenv("APP_PORT", "8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", ""),
		CORSOrigins:   envList("CORS_ORIGINS", "*"),
		SinkTimeout:   l.envDur("SINK_TIMEOUT", 5*time.Second),
		RateLimit:     l.loadRateLimit(),
		Redis:         l.loadRedis(),
		Cache:         l.loadCache(),
		Band:          loadBand(),
		Calendar: CalendarConfig{
			TZID:      getenv("CALENDAR_TZID", "America/New_York"),
			BandName:  getenv("CALENDAR_BAND_NAME", getenv("BAND_NAME", "The Band Project")),
			UIDDomain: getenv("CALENDAR_UID_DOMAIN", "thebandproject.com"),
		},
		Notify: NotifyConfig{
			RabbitURL:    getenv("RABBITMQ_URL", getenv("AMQP_URL", "")),
			Consumer:     l.envBool("NOTIFY_CONSUMER", false),
			SMTPHost:     getenv("SMTP_HOST", ""),
			SMTPPort:     getenv("SMTP_PORT", "587"),
			SMTPUser:     getenv("SMTP_USER", ""),
			SMTPPass:     getenv("SMTP_PASS", ""),
			SMTPFrom:     getenv("SMTP_FROM", "contact@thebandproject.com"),
			ContactEmail: getenv("CONTACT_EMAIL", ""),
			PerMinute:    l.envInt("NOTIFY_RATE", 30),
		},
	}

	cfg.Store = StoreConfig{
		Driver:    l.oneOf("STORE_DRIVER", DriverNone, DriverNone, DriverMySQL, DriverMongo),
		ShowsFile: getenv("SHOWS_FILE", ""),
	}
	switch cfg.Store.Driver {
	case DriverMySQL:
		cfg.Store.DBUser = l.must("DB_USER")
		cfg.Store.DBPass = getenv("DB_PASS", "")
		cfg.Store.DBHost = l.must("DB_HOST")
		cfg.Store.DBPort = getenv("DB_PORT", "3306")
		cfg.Store.DBName = l.must("DB_NAME")
		cfg.Store.DBMigrate = l.envBool("DB_MIGRATE", true)
	case DriverMongo:
		cfg.Store.MongoURI = l.must("MONGO_URI")
		cfg.Store.MongoDB = getenv("MONGO_DB", "bandsite")
	}
	if cfg.Notify.Consumer && cfg.Notify.SMTPHost == "" {
		l.errs = append(l.errs, errors.New("NOTIFY_CONSUMER requires SMTP_HOST"))
	}

	if err := errors.Join(l.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProd reports whether the app runs in production.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }
