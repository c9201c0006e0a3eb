package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 7687, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "none", cfg.Auth.Scheme)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOLTCLIENT_HOST", "bolt+s://db.example.com")
	t.Setenv("BOLTCLIENT_PORT", "7688")
	t.Setenv("BOLTCLIENT_CONNECT_TIMEOUT", "2.5")
	t.Setenv("BOLTCLIENT_PROTOCOL", "5.4")
	t.Setenv("NEO4J_AUTH", "neo4j/secret")

	cfg := LoadFromEnv()
	assert.Equal(t, "bolt+s://db.example.com", cfg.Host)
	assert.Equal(t, 7688, cfg.Port)
	assert.Equal(t, 2500*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, "5.4", cfg.Protocol)
	assert.Equal(t, "basic", cfg.Auth.Scheme)
	assert.Equal(t, "neo4j", cfg.Auth.Principal)
	assert.Equal(t, "secret", cfg.Auth.Credentials)
}

func TestLoadFromEnvAuthVariants(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		t.Setenv("NEO4J_AUTH", "none")
		cfg := LoadFromEnv()
		assert.Equal(t, "none", cfg.Auth.Scheme)
		assert.Empty(t, cfg.Auth.Principal)
	})

	t.Run("unset defaults to none", func(t *testing.T) {
		t.Setenv("NEO4J_AUTH", "")
		cfg := LoadFromEnv()
		assert.Equal(t, "none", cfg.Auth.Scheme)
	})

	t.Run("bare password assumes neo4j user", func(t *testing.T) {
		t.Setenv("NEO4J_AUTH", "hunter2")
		cfg := LoadFromEnv()
		assert.Equal(t, "basic", cfg.Auth.Scheme)
		assert.Equal(t, "neo4j", cfg.Auth.Principal)
		assert.Equal(t, "hunter2", cfg.Auth.Credentials)
	})

	t.Run("password may contain slashes", func(t *testing.T) {
		t.Setenv("NEO4J_AUTH", "admin/p/w/slashes")
		cfg := LoadFromEnv()
		assert.Equal(t, "admin", cfg.Auth.Principal)
		assert.Equal(t, "p/w/slashes", cfg.Auth.Credentials)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
host: bolt+s://db.example.com
port: 7687
connect_timeout: 5s
protocol: "5.1"
auth:
  scheme: basic
  principal: neo4j
  credentials: secret
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt+s://db.example.com", cfg.Host)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "5.1", cfg.Protocol)
	assert.Equal(t, "neo4j", cfg.Auth.Principal)
	assert.NoError(t, cfg.Validate())
}

func TestMergeFileKeepsUnmentionedSettings(t *testing.T) {
	t.Setenv("BOLTCLIENT_HOST", "env.example.com")
	t.Setenv("NEO4J_AUTH", "neo4j/secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7999\n"), 0o644))

	cfg := LoadFromEnv()
	require.NoError(t, cfg.MergeFile(path))

	assert.Equal(t, 7999, cfg.Port, "file setting wins")
	assert.Equal(t, "env.example.com", cfg.Host, "env setting survives the merge")
	assert.Equal(t, "neo4j", cfg.Auth.Principal)
	assert.Equal(t, "secret", cfg.Auth.Credentials)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: [not: closed"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"empty host", func(c *Config) { c.Host = "" }, true},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"zero timeout", func(c *Config) { c.ConnectTimeout = 0 }, true},
		{"basic auth without principal", func(c *Config) {
			c.Auth = AuthConfig{Scheme: "basic"}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
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

func TestSchemeHandling(t *testing.T) {
	tests := []struct {
		host      string
		encrypted bool
		hostname  string
	}{
		{"localhost", false, "localhost"},
		{"bolt://localhost", false, "localhost"},
		{"bolt+s://db.example.com", true, "db.example.com"},
		{"neo4j+s://db.example.com", true, "db.example.com"},
		{"BOLT+S://db.example.com", true, "db.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Host = tt.host
			assert.Equal(t, tt.encrypted, cfg.Encrypted())
			assert.Equal(t, tt.hostname, cfg.Hostname())
			assert.Equal(t, tt.hostname+":7687", cfg.Address())
		})
	}
}

func TestAuthToken(t *testing.T) {
	t.Run("empty scheme defaults to none", func(t *testing.T) {
		token := AuthConfig{}.Token()
		assert.Equal(t, map[string]any{"scheme": "none"}, token)
	})

	t.Run("basic", func(t *testing.T) {
		token := AuthConfig{Scheme: "basic", Principal: "neo4j", Credentials: "secret"}.Token()
		assert.Equal(t, map[string]any{
			"scheme":      "basic",
			"principal":   "neo4j",
			"credentials": "secret",
		}, token)
	})

	t.Run("extra parameters pass through", func(t *testing.T) {
		token := AuthConfig{
			Scheme:     "custom",
			Parameters: map[string]any{"realm": "corp"},
		}.Token()
		assert.Equal(t, "corp", token["realm"])
	})
}

func TestParseTimeout(t *testing.T) {
	d, err := ParseTimeout("5s")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = ParseTimeout("0.5")
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)

	d, err = ParseTimeout("3")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	_, err = ParseTimeout("soon")
	assert.Error(t, err)
}

func TestStringRedactsCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth = AuthConfig{Scheme: "basic", Principal: "neo4j", Credentials: "hunter2"}
	s := cfg.String()
	assert.Contains(t, s, "basic")
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "neo4j")
}
