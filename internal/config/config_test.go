package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Game: GameConfig{
			GridWidth:       16,
			GridHeight:      12,
			DefaultCapacity: 2,
			AttackDie:       "1d20",
			DamageDie:       "1d6",
		},
		Bot: BotConfig{
			AutoAttach:    true,
			Name:          "Computer",
			ThinkInterval: 2 * time.Second,
			StopTimeout:   5 * time.Second,
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestValidate_Server(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Host = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_Logging(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidate_Game(t *testing.T) {
	cfg := validConfig()
	cfg.Game.GridWidth = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.GridHeight = -1
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.DefaultCapacity = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.AttackDie = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Game.DamageDie = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_Bot(t *testing.T) {
	cfg := validConfig()
	cfg.Bot.Name = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Bot.ThinkInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Bot.StopTimeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 16, cfg.Game.GridWidth)
	assert.Equal(t, 12, cfg.Game.GridHeight)
	assert.Equal(t, "1d20", cfg.Game.AttackDie)
	assert.Equal(t, "1d6", cfg.Game.DamageDie)
	assert.True(t, cfg.Bot.AutoAttach)
	assert.Equal(t, "Computer", cfg.Bot.Name)
	assert.Equal(t, 2*time.Second, cfg.Bot.ThinkInterval)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  host: 127.0.0.1
  port: 9090
logging:
  level: debug
  format: console
game:
  grid_width: 20
  grid_height: 15
  attack_die: 1d12
bot:
  auto_attach: false
  think_interval: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Game.GridWidth)
	assert.Equal(t, 15, cfg.Game.GridHeight)
	assert.Equal(t, "1d12", cfg.Game.AttackDie)
	assert.Equal(t, "1d6", cfg.Game.DamageDie, "unset keys keep defaults")
	assert.False(t, cfg.Bot.AutoAttach)
	assert.Equal(t, 500*time.Millisecond, cfg.Bot.ThinkInterval)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("FUNGAME_SERVER_PORT", "7000")
	t.Setenv("FUNGAME_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
