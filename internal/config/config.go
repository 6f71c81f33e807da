package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the portal process needs.
// All values come from env (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	API      APIConfig
	Session  SessionConfig
	Access   AccessConfig
	DB       DBConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Throttle ThrottleConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// APIConfig describes the upstream CMS API reached through internal/apiclient.
type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RetryMax       int
	RetryBaseDelay time.Duration
	// RetryNetwork enables retries of idempotent calls that got no response at all.
	RetryNetwork bool
}

type SessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

type AccessConfig struct {
	// RulesFile optionally replaces the built-in route table (YAML).
	RulesFile string
	StaticDir string
}

// DBConfig is optional. When Host is empty the audit trail stays in memory.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional. When Host is empty guest page caching is disabled.
type RedisConfig struct {
	Host string
	Port int
}

type CacheConfig struct {
	TTL time.Duration
}

// ThrottleConfig bounds sign-in attempts per client IP. Limit 0 disables it.
type ThrottleConfig struct {
	LoginLimit  int
	LoginWindow time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var env envReader

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port = env.mustInt("APP_PORT")

	c.API.BaseURL = strings.TrimSpace(os.Getenv("API_BASE_URL"))
	c.API.Timeout = env.duration("API_TIMEOUT")
	c.API.RetryMax = env.intOr("API_RETRY_MAX", 2)
	c.API.RetryBaseDelay = env.duration("API_RETRY_BASE_DELAY")
	c.API.RetryNetwork = env.boolOr("API_RETRY_NETWORK", true)

	c.Session.CookieName = strings.TrimSpace(os.Getenv("SESSION_COOKIE_NAME"))
	c.Session.MaxAge = env.duration("SESSION_COOKIE_MAX_AGE")

	c.Access.RulesFile = strings.TrimSpace(os.Getenv("ACCESS_RULES_FILE"))
	c.Access.StaticDir = strings.TrimSpace(os.Getenv("STATIC_DIR"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	if c.DB.Host != "" {
		c.DB.Port = env.mustInt("DB_PORT")
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		c.Redis.Port = env.mustInt("REDIS_PORT")
	}
	c.Cache.TTL = env.duration("CACHE_TTL")
	c.Throttle.LoginLimit = env.intOr("LOGIN_RATE_LIMIT", 10)
	c.Throttle.LoginWindow = env.duration("LOGIN_RATE_WINDOW")

	if err := joinErrors(env.errs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every problem at once and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.App.validate()...)

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL is required"))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 15 * time.Second
	}
	if c.API.RetryMax < 0 || c.API.RetryMax > 10 {
		errs = append(errs, fmt.Errorf("API_RETRY_MAX must be between 0 and 10, got %d", c.API.RetryMax))
	}
	if c.API.RetryBaseDelay <= 0 {
		c.API.RetryBaseDelay = 300 * time.Millisecond
	}

	if c.Session.CookieName == "" {
		c.Session.CookieName = "token"
	}
	if c.Session.MaxAge <= 0 {
		c.Session.MaxAge = 7 * 24 * time.Hour
	}
	// Production cookies only travel over TLS.
	c.Session.Secure = c.IsProduction()

	if c.DB.Host != "" {
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Throttle.LoginLimit < 0 {
		errs = append(errs, fmt.Errorf("LOGIN_RATE_LIMIT must not be negative, got %d", c.Throttle.LoginLimit))
	}
	if c.Throttle.LoginWindow <= 0 {
		c.Throttle.LoginWindow = time.Minute
	}

	return joinErrors(errs)
}

func (a AppConfig) validate() []error {
	var errs []error
	if a.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(a.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", a.Env))
	}
	if a.Port <= 0 || a.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", a.Port))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string { return c.App.HTTPAddr() }

func (a AppConfig) HTTPAddr() string {
	return fmt.Sprintf(":%d", a.Port)
}

func (c Config) AuditEnabled() bool { return c.DB.Host != "" }

func (c Config) CacheEnabled() bool { return c.Redis.Host != "" }

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optionalDuration returns 0 when unset; defaults are applied in Validate.
func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

func optionalBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

// envReader collects parse errors so Load can report all of them together.
type envReader struct {
	errs []error
}

func (r *envReader) add(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *envReader) mustInt(key string) int {
	n, err := mustInt(key)
	r.add(err)
	return n
}

func (r *envReader) intOr(key string, def int) int {
	n, err := optionalInt(key, def)
	r.add(err)
	return n
}

func (r *envReader) duration(key string) time.Duration {
	d, err := optionalDuration(key)
	r.add(err)
	return d
}

func (r *envReader) boolOr(key string, def bool) bool {
	b, err := optionalBool(key, def)
	r.add(err)
	return b
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
