package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Billing Billing `yaml:"billing"`
}

type Server struct {
	ListenAddr     string   `yaml:"listenAddr"`
	Environment    string   `yaml:"environment"` // production, development
	DatabaseDriver string   `yaml:"databaseDriver"`
	DatabaseDsn    string   `yaml:"databaseDsn"`
	RedisAddr      string   `yaml:"redisAddr"`
	RedisPassword  string   `yaml:"redisPassword"`
	RedisDB        int      `yaml:"redisDB"`
	MemcachedAddr  string   `yaml:"memcachedAddr"`
	EnableTrace    bool     `yaml:"enableTrace"`
	TraceEndpoint  string   `yaml:"traceEndpoint"`
	SessionTTL     string   `yaml:"sessionTTL"`
	SecureCookie   bool     `yaml:"secureCookie"`
	CorsOrigins    []string `yaml:"corsOrigins"`
}

type Billing struct {
	BaseURL  string `yaml:"baseURL"`
	APIKey   string `yaml:"apiKey"`
	CacheTTL string `yaml:"cacheTTL"`
}

const (
	DefaultListenAddr = ":8000"
	DefaultSessionTTL = "24h"
	DefaultCacheTTL   = "5m"
)

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrapf(err, "decode %s", path)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// ApplyDefaults fills every unset field. Load calls it once; nothing else
// should default configuration values.
func (c *Config) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "production"
	}
	if c.Server.DatabaseDriver == "" {
		c.Server.DatabaseDriver = "postgres"
	}
	if c.Server.SessionTTL == "" {
		c.Server.SessionTTL = DefaultSessionTTL
	}
	if c.Server.TraceEndpoint == "" {
		c.Server.TraceEndpoint = "localhost:4318"
	}
	if c.Billing.CacheTTL == "" {
		c.Billing.CacheTTL = DefaultCacheTTL
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.DatabaseDsn) == "" {
		return fmt.Errorf("server.databaseDsn is required")
	}
	switch c.Server.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("server.databaseDriver must be postgres or sqlite, got %q", c.Server.DatabaseDriver)
	}
	if !strings.Contains(c.Server.ListenAddr, ":") {
		return fmt.Errorf("server.listenAddr %q must be host:port", c.Server.ListenAddr)
	}
	if strings.TrimSpace(c.Server.RedisAddr) == "" {
		return fmt.Errorf("server.redisAddr is required")
	}
	if ttl, err := time.ParseDuration(c.Server.SessionTTL); err != nil || ttl <= 0 {
		return fmt.Errorf("server.sessionTTL %q is not a positive duration", c.Server.SessionTTL)
	}
	if ttl, err := time.ParseDuration(c.Billing.CacheTTL); err != nil || ttl <= 0 {
		return fmt.Errorf("billing.cacheTTL %q is not a positive duration", c.Billing.CacheTTL)
	}
	return nil
}

// SessionDuration returns the parsed session lifetime. Valid after Load.
func (s Server) SessionDuration() time.Duration {
	d, _ := time.ParseDuration(s.SessionTTL)
	return d
}

func (b Billing) CacheDuration() time.Duration {
	d, _ := time.ParseDuration(b.CacheTTL)
	return d
}

// Enabled reports whether a billing provider is configured.
func (b Billing) Enabled() bool {
	return b.BaseURL != ""
}
