// Package config provides loading and parsing of the chatd configuration
// file using Viper. It defines the full configuration schema and can emit a
// commented starter file for new installations.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/avolk/parley/internal/logging"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the full structure of the chatd configuration file.
type Config struct {
	Listen string         `mapstructure:"listen" yaml:"listen"` // TCP listen address, e.g. ":4000"
	MOTD   string         `mapstructure:"motd" yaml:"motd"`     // message sent on connect
	Banned []string       `mapstructure:"banned" yaml:"banned"` // host identities refused at connect
	Chat   ChatConfig     `mapstructure:"chat" yaml:"chat"`
	Logger logging.Config `mapstructure:"log" yaml:"log"`
}

// ChatConfig holds the chat application settings.
type ChatConfig struct {
	// DefaultNick names fresh connections; the peer host is appended when
	// empty.
	DefaultNick string `mapstructure:"default_nick" yaml:"default_nick"`
	// HistorySize is how many recent lines a joining client is replayed.
	// Zero disables replay.
	HistorySize int `mapstructure:"history_size" yaml:"history_size"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Listen: ":4000",
		MOTD:   "Welcome to the chatroom. Type /commands for help.",
		Chat: ChatConfig{
			HistorySize: 20,
		},
		Logger: logging.Config{
			Level:    "info",
			ToStdout: true,
		},
	}
}

// ResolvePath returns the best config path. It checks, in order:
// 1. $PARLEY_CONFIG if set (absolute path)
// 2. ~/.parley/<file>
// 3. /etc/parley/<file>
// 4. ./<file>
func ResolvePath(file string) (string, error) {
	if env := os.Getenv("PARLEY_CONFIG"); env != "" {
		return env, nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".parley", file)
		if _, err := os.Stat(userPath); err == nil {
			return userPath, nil
		}
	}
	systemPath := filepath.Join("/etc/parley", file)
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath, nil
	}
	if _, err := os.Stat(file); err == nil {
		return file, nil
	}
	return "", fmt.Errorf("no config found for %s", file)
}

// Load reads the configuration at path into a typed struct. An empty path
// resolves chatd.yaml through the search paths; if nothing is found the
// defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		resolved, err := ResolvePath("chatd.yaml")
		if err != nil {
			cfg := Default()
			return &cfg, nil
		}
		path = resolved
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	return &cfg, nil
}

// WriteDefault writes the default configuration to path as YAML, for
// bootstrapping a new installation. It refuses to overwrite an existing
// file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	cfg := Default()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
