package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

const configVersion = "1.0"

// Config holds the connection details of the inventory server.
type Config struct {
	Version string `yaml:"version"`
	// ServerURL is the base URL of the inventory server
	ServerURL string `yaml:"server_url"`
	// TimeoutSeconds bounds every request; zero means 30 seconds.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

var config *Config

// GetDefaultConfigPath returns the config file location under the user
// config directory, e.g. ~/.config/tansive-inventory/config.yaml on Linux.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "tansive-inventory", DefaultConfigFile), nil
}

// LoadConfig loads the configuration from file, or from the default
// location when file is empty.
func LoadConfig(file string) error {
	if file == "" {
		var err error
		file, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	yamlStr, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}

	var c Config
	if err = yaml.Unmarshal(yamlStr, &c); err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}
	c.ServerURL = MorphServer(c.ServerURL)
	if err := c.ValidateConfig(); err != nil {
		return err
	}

	config = &c
	return nil
}

func GetConfig() *Config {
	return config
}

// WriteConfig writes the configuration to file, creating its directory.
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = configVersion
	}
	yamlStr, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}
	if err := os.WriteFile(file, yamlStr, 0o644); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}

func (cfg *Config) ValidateConfig() error {
	if cfg.ServerURL == "" {
		return errors.New("server_url is required")
	}
	if !strings.HasPrefix(cfg.ServerURL, "http://") && !strings.HasPrefix(cfg.ServerURL, "https://") {
		return errors.New("server_url must start with http:// or https://")
	}
	host := strings.TrimPrefix(strings.TrimPrefix(cfg.ServerURL, "http://"), "https://")
	if !strings.Contains(host, ":") {
		return errors.New("server_url must include port number")
	}
	if cfg.TimeoutSeconds < 0 {
		return errors.New("timeout_seconds cannot be negative")
	}
	return nil
}

// MorphServer adds http:// when no scheme is given and drops trailing slashes.
func MorphServer(server string) string {
	if server == "" {
		return server
	}
	server = strings.TrimRight(server, "/")
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	return server
}

func (cfg *Config) GetServerURL() string {
	return MorphServer(cfg.ServerURL)
}
