package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost/todos",
		"JWT_SECRET":   "0123456789abcdef0123",
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, AuthzLive, cfg.AuthzMode)
	assert.Equal(t, RevocationNone, cfg.Revocation)
	assert.Equal(t, "ADMIN", cfg.AdminRole)
	assert.Equal(t, "USER", cfg.DefaultRole)
	assert.Equal(t, 5, cfg.LoginBurst)
	assert.False(t, cfg.SeedDemoUsers)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestFromEnvOverrides(t *testing.T) {
	env := baseEnv()
	env["DB_DRIVER"] = "SQLite"
	env["JWT_ACCESS_TTL"] = "15m"
	env["AUTHZ_MODE"] = "token"
	env["REVOCATION"] = "redis"
	env["REDIS_URL"] = "redis://localhost:6379/0"
	env["DEFAULT_ROLE"] = "none"
	env["LOGIN_BURST"] = "10"
	env["SEED_DEMO_USERS"] = "true"
	env["TRUST_PROXY_HEADERS"] = "1"

	cfg, err := FromEnv(envOf(env))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, AuthzToken, cfg.AuthzMode)
	assert.Equal(t, RevocationRedis, cfg.Revocation)
	assert.Empty(t, cfg.DefaultRole)
	assert.Equal(t, 10, cfg.LoginBurst)
	assert.True(t, cfg.SeedDemoUsers)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"short secret":      {"JWT_SECRET": "short"},
		"missing dsn":       {"DATABASE_URL": ""},
		"bad driver":        {"DB_DRIVER": "mysql"},
		"bad ttl":           {"JWT_ACCESS_TTL": "soon"},
		"bad authz mode":    {"AUTHZ_MODE": "cached"},
		"redis without url": {"REVOCATION": "redis"},
		"bad burst":         {"LOGIN_BURST": "-1"},
	}
	for name, override := range cases {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			for k, v := range override {
				env[k] = v
			}
			_, err := FromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}
