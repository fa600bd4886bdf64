package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/opendelve/internal/dungeon"
)

// Config holds delved-wide configuration settings.
type Config struct {
	Seed        int64             `yaml:"seed"` // 0 lets delved pick one from the clock
	Dungeon     dungeon.Config    `yaml:"dungeon"`
	Vision      VisionConfig      `yaml:"vision"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	Archive     ArchiveConfig     `yaml:"archive"`
}

// VisionConfig holds field of view settings.
type VisionConfig struct {
	// Radius is the sight radius in tiles. A tile is in range when
	// dx²+dy² <= radius².
	Radius int `yaml:"radius"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited (not recommended).
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// ArchiveConfig selects where generated levels are stored.
type ArchiveConfig struct {
	Enabled    bool           `yaml:"enabled"`
	Driver     string         `yaml:"driver"` // "sqlite" or "postgres"
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds the PostgreSQL connection fields.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// DefaultConfig returns a Config with the classic level layout.
func DefaultConfig() *Config {
	return &Config{
		Dungeon: *dungeon.DefaultConfig(),
		Vision: VisionConfig{
			Radius: 8,
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 4096,
		},
		Connections: ConnectionsConfig{
			MaxPerIP: 3,
			MaxTotal: 100,
		},
		Archive: ArchiveConfig{
			Enabled:    true,
			Driver:     "sqlite",
			SQLitePath: "data/levels.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file.
// A missing file yields defaults; a malformed one yields defaults and the
// parse error. Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return config, err
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	if err := config.applyEnv(); err != nil {
		return config, err
	}
	return config, nil
}

// applyEnv applies DELVE_SEED and DELVE_ARCHIVE_DRIVER
func (c *Config) applyEnv() error {
	if v := os.Getenv("DELVE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid DELVE_SEED %q: %w", v, err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("DELVE_ARCHIVE_DRIVER"); v != "" {
		c.Archive.Driver = strings.ToLower(v)
	}
	return nil
}

// Validate checks the settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Dungeon.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Vision.Radius < 0 {
		errs = append(errs, fmt.Errorf("vision radius %d is negative", c.Vision.Radius))
	}
	if c.WebSocket.MaxMessageSize <= 0 {
		errs = append(errs, fmt.Errorf("websocket max_message_size must be positive"))
	}
	if c.Archive.Enabled {
		switch c.Archive.Driver {
		case "sqlite":
			if c.Archive.SQLitePath == "" {
				errs = append(errs, fmt.Errorf("archive sqlite_path is required"))
			}
		case "postgres":
			if c.Archive.Postgres.Database == "" {
				errs = append(errs, fmt.Errorf("archive postgres database is required"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown archive driver %q", c.Archive.Driver))
		}
	}
	return errors.Join(errs...)
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // Non-browser clients send no Origin header
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
