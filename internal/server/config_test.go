package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/unoroom/internal/game"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	assert.Equal(t, "localhost:8080", c.ListenAddress())
	assert.Equal(t, "memory", c.Storage.Backend)
	assert.Equal(t, 10, c.Rooms.MaxPlayers)
	assert.Equal(t, 2*time.Hour, c.IdleTimeout())
	assert.Equal(t, time.Minute, c.SweepInterval())
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()
	c, err := LoadConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "unoroom.hcl")
	src := `
server {
  address    = "0.0.0.0"
  port       = 9000
  log_level  = "debug"
  log_format = "json"
}

storage {
  backend = "sqlite"
}

rooms {
  max_players  = 6
  idle_timeout = "30m"
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "0.0.0.0:9000", c.ListenAddress())
	assert.Equal(t, "debug", c.Server.LogLevel)
	assert.Equal(t, "json", c.Server.LogFormat)
	assert.Equal(t, "sqlite", c.Storage.Backend)
	assert.Equal(t, "unoroom.db", c.Storage.Path, "backend default path")
	assert.Equal(t, 6, c.Rooms.MaxPlayers)
	assert.Equal(t, 30*time.Minute, c.IdleTimeout())
	assert.Equal(t, time.Minute, c.SweepInterval(), "unset values keep defaults")
}

func TestParseConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig([]byte(`server {`), "broken.hcl")
	assert.ErrorContains(t, err, "parse")

	_, err = ParseConfig([]byte(`server { port = "eighty" }`), "typed.hcl")
	assert.ErrorContains(t, err, "decode")

	_, err = ParseConfig([]byte(`tables { }`), "unknown.hcl")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"bad level", func(c *Config) { c.Server.LogLevel = "loud" }, "log level"},
		{"bad format", func(c *Config) { c.Server.LogFormat = "xml" }, "log format"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }, "unknown storage backend"},
		{"file without path", func(c *Config) { c.Storage.Backend = "file"; c.Storage.Path = "" }, "requires a path"},
		{"tiny rooms", func(c *Config) { c.Rooms.MaxPlayers = 1 }, "max players"},
		{"more players than one deck deals", func(c *Config) { c.Rooms.MaxPlayers = game.MaxPlayers + 1 }, "max players must be between"},
		{"bad idle timeout", func(c *Config) { c.Rooms.IdleTimeout = "soon" }, "idle timeout"},
		{"zero sweep", func(c *Config) { c.Rooms.SweepInterval = "0s" }, "sweep interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestConfigApplyOverrides(t *testing.T) {
	t.Parallel()

	c, err := ParseConfig([]byte(`
storage {
  backend = "file"
  path    = "/var/lib/unoroom"
}
`), "override.hcl")
	require.NoError(t, err)

	require.NoError(t, c.Apply(Overrides{}))
	assert.Equal(t, "/var/lib/unoroom", c.Storage.Path, "empty overrides keep the file")

	require.NoError(t, c.Apply(Overrides{Addr: ":9090", LogLevel: "debug", MaxPlayers: 4}))
	assert.Equal(t, "0.0.0.0:9090", c.ListenAddress())
	assert.Equal(t, "debug", c.Server.LogLevel)
	assert.Equal(t, 4, c.Rooms.MaxPlayers)

	require.NoError(t, c.Apply(Overrides{Backend: "sqlite"}))
	assert.Equal(t, "sqlite", c.Storage.Backend)
	assert.Equal(t, "unoroom.db", c.Storage.Path, "switching backend resets the path")

	require.NoError(t, c.Apply(Overrides{Backend: "sqlite", Path: "rooms.db"}))
	assert.Equal(t, "rooms.db", c.Storage.Path)
	require.NoError(t, c.Validate())

	assert.ErrorContains(t, c.Apply(Overrides{Addr: "nope"}), "invalid address")
	assert.ErrorContains(t, c.Apply(Overrides{Addr: "host:http"}), "invalid port")
}
