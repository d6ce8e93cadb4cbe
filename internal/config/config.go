package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthzLive  = "live"
	AuthzToken = "token"

	RevocationNone  = "none"
	RevocationRedis = "redis"

	minSecretLen = 16
)

type Config struct {
	HTTPPort        string
	ShutdownTimeout time.Duration
	LogLevel        string

	DBDriver    string
	DatabaseURL string

	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	AuthzMode  string
	Revocation string
	RedisURL   string

	AdminRole   string
	DefaultRole string

	LoginRatePerSec float64
	LoginBurst      int

	SeedDemoUsers bool

	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only safe behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an arbitrary lookup so tests need not touch the process env.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	var errs []error
	dur := func(key string, def time.Duration) time.Duration {
		s := get(key, "")
		if s == "" {
			return def
		}
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, s))
			return def
		}
		return d
	}

	cfg := &Config{
		HTTPPort:        get("HTTP_PORT", "8080"),
		ShutdownTimeout: dur("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        strings.ToLower(get("LOG_LEVEL", "info")),
		DBDriver:        strings.ToLower(get("DB_DRIVER", "postgres")),
		DatabaseURL:     get("DATABASE_URL", ""),
		JWTSecret:       []byte(getenv("JWT_SECRET")),
		AccessTTL:       dur("JWT_ACCESS_TTL", time.Hour),
		RefreshTTL:      dur("JWT_REFRESH_TTL", 7*24*time.Hour),
		AuthzMode:       strings.ToLower(get("AUTHZ_MODE", AuthzLive)),
		Revocation:      strings.ToLower(get("REVOCATION", RevocationNone)),
		RedisURL:        get("REDIS_URL", ""),
		AdminRole:       get("ADMIN_ROLE", "ADMIN"),
		DefaultRole:     get("DEFAULT_ROLE", "USER"),
		LoginRatePerSec: 1,
		LoginBurst:      5,
	}
	// "none" turns off the signup role.
	if strings.EqualFold(cfg.DefaultRole, "none") {
		cfg.DefaultRole = ""
	}

	if s := get("LOGIN_RATE_PER_SEC", ""); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 {
			errs = append(errs, fmt.Errorf("LOGIN_RATE_PER_SEC: invalid value %q", s))
		} else {
			cfg.LoginRatePerSec = f
		}
	}
	if s := get("LOGIN_BURST", ""); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("LOGIN_BURST: invalid value %q", s))
		} else {
			cfg.LoginBurst = n
		}
	}
	boolean := func(key string) bool {
		s := get(key, "")
		if s == "" {
			return false
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid bool %q", key, s))
		}
		return b
	}
	cfg.SeedDemoUsers = boolean("SEED_DEMO_USERS")
	cfg.TrustProxyHeaders = boolean("TRUST_PROXY_HEADERS")

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver))
	}
	if len(cfg.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen))
	}
	if cfg.AuthzMode != AuthzLive && cfg.AuthzMode != AuthzToken {
		errs = append(errs, fmt.Errorf("AUTHZ_MODE: expected %q or %q, got %q", AuthzLive, AuthzToken, cfg.AuthzMode))
	}
	switch cfg.Revocation {
	case RevocationNone:
	case RevocationRedis:
		if cfg.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when REVOCATION=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("REVOCATION: expected %q or %q, got %q", RevocationNone, RevocationRedis, cfg.Revocation))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}
