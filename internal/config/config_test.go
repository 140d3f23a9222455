package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret32 = "0123456789abcdef0123456789abcdef"

// isolate clears every variable Load reads and points the optional files at
// paths that do not exist.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{
		"SERVER_ADDRESS", "DATABASE_DSN", "JWT_SECRET", "JWT_EXPIRES_IN", "CORS_ORIGIN", "APP_ENV",
		"LOG_LEVEL", "TLS_CERT_FILE", "TLS_KEY_FILE", "SHUTDOWN_TIMEOUT", "POOL_STATS_INTERVAL", "CONFIG",
	} {
		k := k
		prev, had := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, prev)
			} else {
				_ = os.Unsetenv(k)
			}
		})
	}
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoad_FlagsAndDefaults(t *testing.T) {
	dir := isolate(t)

	opts, err := Load([]string{"-d", "postgres://x", "-s", secret32, "-c", filepath.Join(dir, "none.json")})
	require.NoError(t, err)

	assert.Equal(t, ":5000", opts.Port)
	assert.Equal(t, "postgres://x", opts.DatabaseDSN)
	assert.Equal(t, 24*time.Hour, opts.TokenTTL.Duration)
	assert.Equal(t, "http://localhost:5173", opts.CORSOrigin)
	assert.Equal(t, EnvProduction, opts.Environment)
	assert.False(t, opts.IsDevelopment())
	assert.False(t, opts.TLSEnabled())
}

func TestLoad_JSONThenEnvOverride(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"port": ":7000",
		"database_dsn": "postgres://json",
		"jwt_secret": "`+secret32+`",
		"token_ttl": "90m",
		"environment": "development"
	}`), 0o600))

	t.Setenv("CONFIG", cfgPath)
	t.Setenv("SERVER_ADDRESS", ":8000")
	t.Setenv("JWT_EXPIRES_IN", "2h")

	opts, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8000", opts.Port)
	assert.Equal(t, "postgres://json", opts.DatabaseDSN)
	assert.Equal(t, 2*time.Hour, opts.TokenTTL.Duration)
	assert.True(t, opts.IsDevelopment())
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := isolate(t)
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"DATABASE_DSN=postgres://dotenv\nJWT_SECRET="+secret32+"\nCORS_ORIGIN=https://notes.example.com\n",
	), 0o600))
	t.Setenv("ENV_FILE", envPath)

	opts, err := Load([]string{"-c", ""})
	require.NoError(t, err)

	assert.Equal(t, "postgres://dotenv", opts.DatabaseDSN)
	assert.Equal(t, "https://notes.example.com", opts.CORSOrigin)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{"unknown flag", []string{"-zzz"}, nil, "parse flags"},
		{"missing dsn", []string{"-s", secret32}, nil, "database DSN is required"},
		{"missing secret", []string{"-d", "x"}, nil, "JWT secret is required"},
		{"short secret in production", []string{"-d", "x", "-s", "short"}, nil, "at least 32 bytes"},
		{"bad ttl env", []string{"-d", "x", "-s", secret32}, map[string]string{"JWT_EXPIRES_IN": "7days"}, "parse env"},
		{"zero ttl", []string{"-d", "x", "-s", secret32, "-t", "0s"}, nil, "token TTL must be positive"},
		{"zero pool stats interval", []string{"-d", "x", "-s", secret32}, map[string]string{"POOL_STATS_INTERVAL": "0s"}, "pool stats interval must be positive"},
		{"negative pool stats interval", []string{"-d", "x", "-s", secret32}, map[string]string{"POOL_STATS_INTERVAL": "-5s"}, "pool stats interval must be positive"},
		{"zero shutdown timeout", []string{"-d", "x", "-s", secret32}, map[string]string{"SHUTDOWN_TIMEOUT": "0s"}, "shutdown timeout must be positive"},
		{"unknown env", []string{"-d", "x", "-s", secret32, "-e", "staging"}, nil, `unknown environment "staging"`},
		{"half tls", []string{"-d", "x", "-s", secret32}, map[string]string{"TLS_CERT_FILE": "cert.pem"}, "set together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"-c", filepath.Join(dir, "none.json")}, tt.args...)
			_, err := Load(args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ShortSecretAllowedInDevelopment(t *testing.T) {
	dir := isolate(t)
	opts, err := Load([]string{"-c", filepath.Join(dir, "none.json"), "-d", "x", "-s", "dev", "-e", EnvDevelopment})
	require.NoError(t, err)
	assert.Equal(t, "dev", opts.JWTSecret)
}

func TestLoad_BadJSON(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"port":`), 0o600))

	_, err := Load([]string{"-c", cfgPath})
	assert.ErrorContains(t, err, "error while parsing config file")
}

func TestOptions_StringRedactsSecret(t *testing.T) {
	o := Options{Port: ":5000", JWTSecret: secret32, TokenTTL: Duration{time.Hour}}
	s := o.String()
	assert.False(t, strings.Contains(s, secret32))
	assert.Contains(t, s, "jwt_secret=[REDACTED]")
	assert.Contains(t, s, "token_ttl=1h0m0s")
}
