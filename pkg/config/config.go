// Package config handles client configuration from environment variables and
// an optional YAML file.
//
// Environment variables use the BOLTCLIENT_ prefix, with NEO4J_AUTH supported
// for compatibility with Neo4j tooling:
//
//   - BOLTCLIENT_HOST="localhost" or "bolt+s://db.example.com"
//   - BOLTCLIENT_PORT=7687
//   - BOLTCLIENT_CONNECT_TIMEOUT="5s" (plain or fractional seconds also accepted)
//   - BOLTCLIENT_PROTOCOL="5.4" (optional version pin)
//   - NEO4J_AUTH="username/password" or "none"
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//
//	fmt.Printf("Connecting to %s\n", cfg.Address())
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all client settings.
//
// A host may carry a scheme prefix selecting the transport: any scheme
// containing "+s" (e.g. "bolt+s://", "neo4j+s://") enables TLS with peer
// verification. A bare host, or a scheme without "+s", uses plain TCP.
type Config struct {
	// Host to connect to, optionally prefixed with a scheme
	Host string `yaml:"host"`
	// Port for Bolt connections (default 7687)
	Port int `yaml:"port"`
	// ConnectTimeout bounds dialing and every request/response exchange
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// Protocol optionally pins the Bolt version, e.g. "5.4" (empty = negotiate)
	Protocol string `yaml:"protocol"`
	// Auth credentials presented during the handshake
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig holds the authentication descriptor. It is passed through to
// the server verbatim; the client neither hashes nor validates credentials.
type AuthConfig struct {
	// Scheme is "none" (default), "basic", or any scheme the server accepts
	Scheme string `yaml:"scheme"`
	// Principal is the username for the "basic" scheme
	Principal string `yaml:"principal"`
	// Credentials is the password or token
	Credentials string `yaml:"credentials"`
	// Parameters carries additional scheme-specific fields (e.g. realm)
	Parameters map[string]any `yaml:"parameters,omitempty"`
}

// Token builds the authentication map sent in HELLO or LOGON.
func (a AuthConfig) Token() map[string]any {
	token := map[string]any{
		"scheme": a.Scheme,
	}
	if a.Scheme == "" {
		token["scheme"] = "none"
	}
	if a.Principal != "" {
		token["principal"] = a.Principal
	}
	if a.Credentials != "" {
		token["credentials"] = a.Credentials
	}
	for k, v := range a.Parameters {
		token[k] = v
	}
	return token
}

// DefaultConfig returns client defaults: localhost:7687, no auth, 10 second
// timeout, negotiated protocol version.
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           7687,
		ConnectTimeout: 10 * time.Second,
		Auth:           AuthConfig{Scheme: "none"},
	}
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults where a variable is not set.
//
// NEO4J_AUTH follows the Neo4j convention: "username/password" enables basic
// auth, "none" (or unset) disables it.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	cfg.Host = getEnv("BOLTCLIENT_HOST", cfg.Host)
	cfg.Port = getEnvInt("BOLTCLIENT_PORT", cfg.Port)
	cfg.ConnectTimeout = getEnvDuration("BOLTCLIENT_CONNECT_TIMEOUT", cfg.ConnectTimeout)
	cfg.Protocol = getEnv("BOLTCLIENT_PROTOCOL", "")

	// NEO4J_AUTH format: "username/password" or "none"
	authStr := getEnv("NEO4J_AUTH", "none")
	if authStr == "none" {
		cfg.Auth = AuthConfig{Scheme: "none"}
	} else {
		parts := strings.SplitN(authStr, "/", 2)
		if len(parts) == 2 {
			cfg.Auth = AuthConfig{Scheme: "basic", Principal: parts[0], Credentials: parts[1]}
		} else {
			cfg.Auth = AuthConfig{Scheme: "basic", Principal: "neo4j", Credentials: authStr}
		}
	}

	return cfg
}

// LoadFile reads a YAML configuration file and merges it over the defaults.
//
// Example file:
//
//	host: bolt+s://db.example.com
//	port: 7687
//	connect_timeout: 5s
//	auth:
//	  scheme: basic
//	  principal: neo4j
//	  credentials: secret
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.MergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFile overlays the YAML file at path onto c. Only settings present in
// the file are overwritten; everything else keeps its current value.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.Auth.Scheme == "basic" && c.Auth.Principal == "" {
		return fmt.Errorf("basic auth requires a principal")
	}
	return nil
}

// Encrypted reports whether the host scheme selects an encrypted transport.
func (c *Config) Encrypted() bool {
	scheme, _, ok := splitScheme(c.Host)
	return ok && strings.Contains(scheme, "+s")
}

// Hostname returns the host with any scheme prefix stripped.
func (c *Config) Hostname() string {
	if _, rest, ok := splitScheme(c.Host); ok {
		return rest
	}
	return c.Host
}

// Address returns the host:port dial target.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Hostname(), c.Port)
}

// String returns a safe representation of the Config. Credentials are never
// included, making this safe for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %s, Port: %d, Timeout: %s, Auth: %s}",
		c.Host, c.Port, c.ConnectTimeout, c.Auth.Scheme)
}

func splitScheme(host string) (scheme, rest string, ok bool) {
	idx := strings.Index(host, "://")
	if idx < 0 {
		return "", host, false
	}
	return strings.ToLower(host[:idx]), host[idx+3:], true
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := ParseTimeout(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// ParseTimeout parses a timeout given as a Go duration ("5s", "500ms") or as
// plain seconds, fractional allowed ("0.5" = 500ms).
func ParseTimeout(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("invalid timeout %q", s)
}
