package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// DevAPIConfig configures cmd/devapi, the local stand-in for the upstream CMS API.
type DevAPIConfig struct {
	App  AppConfig
	Auth AuthConfig
	// Seed loads the bundled sample users, categories and articles on start.
	Seed bool
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	// AccessTokenTTL bounds how long a token is accepted on regular endpoints.
	AccessTokenTTL time.Duration
	// RefreshWindow bounds how long after issuance a token may still be exchanged at /auth/refresh.
	RefreshWindow time.Duration
}

func LoadDevAPI() (DevAPIConfig, error) {
	c := DevAPIConfig{}
	var env envReader

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port = env.mustInt("APP_PORT")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = env.duration("JWT_ACCESS_TTL")
	c.Auth.RefreshWindow = env.duration("JWT_REFRESH_TTL")
	c.Seed = env.boolOr("DEVAPI_SEED", true)

	if err := joinErrors(env.errs); err != nil {
		return DevAPIConfig{}, err
	}
	if err := c.Validate(); err != nil {
		return DevAPIConfig{}, err
	}
	return c, nil
}

func (c *DevAPIConfig) Validate() error {
	errs := c.App.validate()
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, err)
	}
	return joinErrors(errs)
}

func (a *AuthConfig) Validate() error {
	var errs []error
	if a.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if a.AccessTokenTTL <= 0 {
		// Default: short-lived access tokens.
		a.AccessTokenTTL = 15 * time.Minute
	}
	if a.RefreshWindow <= 0 {
		a.RefreshWindow = 7 * 24 * time.Hour
	}
	if a.RefreshWindow <= a.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}
	return joinErrors(errs)
}
