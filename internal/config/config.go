// Package config provides Viper-based configuration loading for the game
// server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds the combat-rule settings stamped onto every session.
type GameConfig struct {
	// GridWidth and GridHeight are the floor dimensions in cells.
	GridWidth  int `mapstructure:"grid_width"`
	GridHeight int `mapstructure:"grid_height"`
	// DefaultCapacity is the entity limit used when a create request carries
	// none.
	DefaultCapacity int `mapstructure:"default_capacity"`
	// AttackDie and DamageDie are dice expressions ("1d20", "2d6+1").
	AttackDie string `mapstructure:"attack_die"`
	DamageDie string `mapstructure:"damage_die"`
	// TemplatesDir is the monster template directory; empty disables the
	// catalogue.
	TemplatesDir string `mapstructure:"templates_dir"`
}

// BotConfig holds autonomous-agent settings.
type BotConfig struct {
	// AutoAttach adds an agent opponent to a session on first join.
	AutoAttach bool `mapstructure:"auto_attach"`
	// Name is the display name agents join under.
	Name string `mapstructure:"name"`
	// ThinkInterval is the pause between agent think iterations.
	ThinkInterval time.Duration `mapstructure:"think_interval"`
	// StopTimeout bounds how long shutdown waits per agent loop.
	StopTimeout time.Duration `mapstructure:"stop_timeout"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
	Bot     BotConfig     `mapstructure:"bot"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBot(c.Bot); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Host == "" {
		errs = append(errs, "server.host must not be empty")
	}
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.GridWidth < 1 {
		errs = append(errs, fmt.Sprintf("game.grid_width must be >= 1, got %d", g.GridWidth))
	}
	if g.GridHeight < 1 {
		errs = append(errs, fmt.Sprintf("game.grid_height must be >= 1, got %d", g.GridHeight))
	}
	if g.DefaultCapacity < 1 {
		errs = append(errs, fmt.Sprintf("game.default_capacity must be >= 1, got %d", g.DefaultCapacity))
	}
	if g.AttackDie == "" {
		errs = append(errs, "game.attack_die must not be empty")
	}
	if g.DamageDie == "" {
		errs = append(errs, "game.damage_die must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBot(b BotConfig) error {
	var errs []string
	if b.Name == "" {
		errs = append(errs, "bot.name must not be empty")
	}
	if b.ThinkInterval <= 0 {
		errs = append(errs, fmt.Sprintf("bot.think_interval must be positive, got %s", b.ThinkInterval))
	}
	if b.StopTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("bot.stop_timeout must be positive, got %s", b.StopTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with FUNGAME_ prefix
	v.SetEnvPrefix("FUNGAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return unmarshal(v)
}

// Default returns the built-in configuration with no file applied. Used when
// no config path is given.
//
// Postcondition: the returned Config passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic("config: defaults must validate: " + err.Error())
	}
	return cfg
}

func unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.grid_width", 16)
	v.SetDefault("game.grid_height", 12)
	v.SetDefault("game.default_capacity", 2)
	v.SetDefault("game.attack_die", "1d20")
	v.SetDefault("game.damage_die", "1d6")
	v.SetDefault("game.templates_dir", "")

	v.SetDefault("bot.auto_attach", true)
	v.SetDefault("bot.name", "Computer")
	v.SetDefault("bot.think_interval", "2s")
	v.SetDefault("bot.stop_timeout", "5s")
}
