package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`

	// ConfigFile stores the path to the config file used
	ConfigFile string
}

// ServerConfig holds the remote coding-assistant server connection settings
type ServerConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	// SessionLimit caps the session list fetch; 0 means server default
	SessionLimit int `mapstructure:"session_limit"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

var globalConfig *Config

// Init initializes the configuration system
func Init(cfgFile string) error {
	cfg := &Config{}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		cfg.ConfigFile = cfgFile
	} else {
		settingsDir := defaultSettingsDir()
		viper.AddConfigPath(settingsDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
		cfg.ConfigFile = filepath.Join(settingsDir, "settings.yaml")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.BindEnv("server.url", "SATCHEL_SERVER_URL")
	viper.BindEnv("server.username", "SATCHEL_USERNAME")

	// Config file is optional; defaults and env cover a fresh install
	if err := viper.ReadInConfig(); err == nil {
		cfg.ConfigFile = viper.ConfigFileUsed()
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = cfg
	return nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("server.url", "http://localhost:4096")
	viper.SetDefault("server.username", "opencode")
	viper.SetDefault("server.session_limit", 0)

	viper.SetDefault("logging.log_file", "system.log")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "info")
}

// Get returns the global configuration, initializing with defaults if needed
func Get() *Config {
	if globalConfig == nil {
		if err := Init(""); err != nil {
			globalConfig = &Config{}
		}
	}
	return globalConfig
}

// SetServer updates the server connection settings in memory and in viper
func SetServer(url, username string) {
	viper.Set("server.url", url)
	viper.Set("server.username", username)
	cfg := Get()
	cfg.Server.URL = url
	cfg.Server.Username = username
}

// Save persists the current configuration to the settings file
func Save() error {
	cfg := Get()
	path := cfg.ConfigFile
	if path == "" {
		path = filepath.Join(defaultSettingsDir(), "settings.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func defaultSettingsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".satchel"
	}
	return filepath.Join(home, ".satchel")
}
