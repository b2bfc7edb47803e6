package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"

	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/store"
)

// Config represents the complete server configuration
type Config struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Storage *StorageSettings `hcl:"storage,block"`
	Rooms   *RoomSettings    `hcl:"rooms,block"`
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address   string `hcl:"address,optional"`
	Port      int    `hcl:"port,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	LogFormat string `hcl:"log_format,optional"`
}

// StorageSettings selects the room backend
type StorageSettings struct {
	Backend string `hcl:"backend,optional"`
	Path    string `hcl:"path,optional"`
}

// RoomSettings limits rooms and controls idle expiry. Durations use Go
// syntax ("30m", "1h").
type RoomSettings struct {
	MaxPlayers    int    `hcl:"max_players,optional"`
	IdleTimeout   string `hcl:"idle_timeout,optional"`
	SweepInterval string `hcl:"sweep_interval,optional"`
}

const (
	defaultAddress       = "localhost"
	defaultPort          = 8080
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
	defaultMaxPlayers    = 10
	defaultIdleTimeout   = "2h"
	defaultSweepInterval = "1m"
)

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads server configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(src, filename)
}

// ParseConfig decodes HCL source and applies defaults for missing values.
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Storage == nil {
		c.Storage = &StorageSettings{}
	}
	if c.Rooms == nil {
		c.Rooms = &RoomSettings{}
	}

	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = defaultLogFormat
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = store.BackendMemory
	}
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case store.BackendFile:
			c.Storage.Path = "rooms"
		case store.BackendSQLite:
			c.Storage.Path = "unoroom.db"
		}
	}

	if c.Rooms.MaxPlayers == 0 {
		c.Rooms.MaxPlayers = defaultMaxPlayers
	}
	if c.Rooms.IdleTimeout == "" {
		c.Rooms.IdleTimeout = defaultIdleTimeout
	}
	if c.Rooms.SweepInterval == "" {
		c.Rooms.SweepInterval = defaultSweepInterval
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := zerolog.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}
	if c.Server.LogFormat != "console" && c.Server.LogFormat != "json" {
		return fmt.Errorf("log format must be console or json, got %q", c.Server.LogFormat)
	}

	switch c.Storage.Backend {
	case store.BackendMemory:
	case store.BackendFile, store.BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage backend %s requires a path", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Rooms.MaxPlayers < game.MinPlayers || c.Rooms.MaxPlayers > game.MaxPlayers {
		return fmt.Errorf("max players must be between %d and %d", game.MinPlayers, game.MaxPlayers)
	}
	idle, err := time.ParseDuration(c.Rooms.IdleTimeout)
	if err != nil || idle < 0 {
		return fmt.Errorf("invalid idle timeout %q", c.Rooms.IdleTimeout)
	}
	sweep, err := time.ParseDuration(c.Rooms.SweepInterval)
	if err != nil || sweep <= 0 {
		return fmt.Errorf("invalid sweep interval %q", c.Rooms.SweepInterval)
	}

	return nil
}

// Overrides are command line values layered over the config file. Zero
// values leave the file's setting in place.
type Overrides struct {
	Addr       string // host:port
	LogLevel   string
	Backend    string
	Path       string
	MaxPlayers int
}

// Apply layers o over c. Changing the backend without a path resets the
// path to that backend's default.
func (c *Config) Apply(o Overrides) error {
	if o.Addr != "" {
		host, port, err := net.SplitHostPort(o.Addr)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", o.Addr, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port in address %q", o.Addr)
		}
		if host == "" {
			host = "0.0.0.0"
		}
		c.Server.Address = host
		c.Server.Port = p
	}
	if o.LogLevel != "" {
		c.Server.LogLevel = o.LogLevel
	}
	if o.Backend != "" && o.Backend != c.Storage.Backend {
		c.Storage.Backend = o.Backend
		c.Storage.Path = ""
	}
	if o.Path != "" {
		c.Storage.Path = o.Path
	}
	if o.MaxPlayers != 0 {
		c.Rooms.MaxPlayers = o.MaxPlayers
	}
	c.applyDefaults()
	return nil
}

// ListenAddress returns the full server address
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

// IdleTimeout returns the parsed idle timeout. Call Validate first.
func (c *Config) IdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Rooms.IdleTimeout)
	return d
}

// SweepInterval returns the parsed sweep interval. Call Validate first.
func (c *Config) SweepInterval() time.Duration {
	d, _ := time.ParseDuration(c.Rooms.SweepInterval)
	return d
}
