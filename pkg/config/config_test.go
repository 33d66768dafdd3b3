package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/pkg/model"
)

func writeConfigFile(t *testing.T, contents string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(contents), 0o600))
	t.Setenv("GATEHOUSE_CONFIG_PATH", dir)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GATEHOUSE_CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "-1", cfg.SessionTTL)
	assert.True(t, cfg.EnableAuth)
	assert.True(t, cfg.EnableSignup)
	assert.True(t, cfg.EnableAPIKeys)
	assert.Equal(t, "pending", cfg.DefaultRole)
	assert.False(t, cfg.EnableDirectory)
	assert.Equal(t, "default", cfg.Source("enable_signup"))
}

func TestLoad_FileValues(t *testing.T) {
	writeConfigFile(t, `
session_secret: file-secret
session_ttl: 4h
enable_signup: false
default_role: user
trusted_email_header: X-Auth-Email
provider_domain: tenant.example.com
provider_audience: https://api.example.com
enable_directory: true
directory:
  host: ldap.internal
  port: 636
  use_tls: true
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-secret", cfg.SessionSecret)
	assert.Equal(t, "4h", cfg.SessionTTL)
	assert.False(t, cfg.EnableSignup, "explicit false in file overrides default true")
	assert.Equal(t, "file", cfg.Source("enable_signup"))
	assert.Equal(t, "user", cfg.DefaultRole)
	assert.True(t, cfg.TrustedHeaderEnabled())
	assert.True(t, cfg.ProviderEnabled())
	assert.Equal(t, "ldap.internal", cfg.Directory.Host)
	assert.Equal(t, 636, cfg.Directory.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	writeConfigFile(t, "session_ttl: 4h\nsession_secret: file-secret\n")
	t.Setenv("GATEHOUSE_SESSION_TTL", "30d")
	t.Setenv("GATEHOUSE_SESSION_SECRET", "env-secret")
	t.Setenv("GATEHOUSE_ENABLE_AUTH", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "30d", cfg.SessionTTL)
	assert.Equal(t, "env-secret", cfg.SessionSecret)
	assert.Equal(t, "environment", cfg.Source("session_ttl"))
	assert.False(t, cfg.EnableAuth)
	assert.Equal(t, "environment", cfg.Source("enable_auth"))
}

func TestLoad_MalformedFile(t *testing.T) {
	writeConfigFile(t, "session_ttl: [broken\n")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		expr    string
		want    time.Duration
		wantErr bool
	}{
		{expr: "-1", want: 0},
		{expr: "0", want: 0},
		{expr: "500ms", want: 500 * time.Millisecond},
		{expr: "30s", want: 30 * time.Second},
		{expr: "15m", want: 15 * time.Minute},
		{expr: "4h", want: 4 * time.Hour},
		{expr: "30d", want: 30 * 24 * time.Hour},
		{expr: "2w", want: 14 * 24 * time.Hour},
		{expr: "1.5h", want: 90 * time.Minute},
		{expr: "", wantErr: true},
		{expr: "never", wantErr: true},
		{expr: "10", wantErr: true},
		{expr: "10y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseTTL(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *GatehouseConfig {
		cfg := newDefault()
		cfg.SessionSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*GatehouseConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *GatehouseConfig) {}},
		{name: "missing secret", mutate: func(c *GatehouseConfig) { c.SessionSecret = "" }, wantErr: true},
		{name: "bad ttl", mutate: func(c *GatehouseConfig) { c.SessionTTL = "forever" }, wantErr: true},
		{name: "bad role", mutate: func(c *GatehouseConfig) { c.DefaultRole = "superuser" }, wantErr: true},
		{
			name:    "provider without audience",
			mutate:  func(c *GatehouseConfig) { c.ProviderDomain = "tenant.example.com" },
			wantErr: true,
		},
		{
			name:    "directory without host",
			mutate:  func(c *GatehouseConfig) { c.EnableDirectory = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParsedDefaultRole(t *testing.T) {
	cfg := newDefault()
	cfg.DefaultRole = "admin"

	role, err := cfg.ParsedDefaultRole()
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)
}

func TestAttributes_RedactsSecrets(t *testing.T) {
	cfg := newDefault()
	cfg.SessionSecret = "super-secret"
	cfg.ProviderClientSecret = "client-secret"

	for _, attr := range cfg.Attributes() {
		assert.NotContains(t, attr.Value, "secret", "attribute %s leaks a secret", attr.Name)
	}

	text := cfg.FormatText()
	assert.NotContains(t, text, "super-secret")
	assert.Contains(t, text, "(redacted)")
}
