package fileserve

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/fileserve/server"
)

// Config represents a fileserve.yaml configuration file. All values are
// optional and act as defaults for the command-line flags; flags always
// override config values.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds server defaults from the config file.
type ServerConfig struct {
	Listen     string `yaml:"listen"`
	StorageDir string `yaml:"storage_dir"`
	Policy     string `yaml:"policy"`
	PoolSize   int    `yaml:"pool_size"`
}

// ClientConfig holds client defaults from the config file.
type ClientConfig struct {
	Server      string   `yaml:"server"`
	DialTimeout Duration `yaml:"dial_timeout"`
	DownloadDir string   `yaml:"download_dir"`
}

// LogConfig holds logging defaults from the config file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Duration wraps time.Duration with YAML support for strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the built-in defaults, matching the protocol's
// conventional port and a flat "storage" directory.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:     ":10001",
			StorageDir: "storage",
			Policy:     string(server.PolicySequential),
			PoolSize:   1,
		},
		Client: ClientConfig{
			Server:      "127.0.0.1:10001",
			DownloadDir: ".",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML config file into a Config on top of the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return cfg, nil
}
