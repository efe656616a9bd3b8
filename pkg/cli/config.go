package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the persisted ~/.rtk.yaml shape: defaults for the export and
// diff subcommands, applied before flags and viper-bound env vars
// override them.
type Config struct {
	Defaults struct {
		Output string `yaml:"output"`
		Debug  bool   `yaml:"debug"`
	} `yaml:"defaults"`

	Export struct {
		Extension     string `yaml:"extension"`
		Format        string `yaml:"format"`
		Parallelism   int    `yaml:"parallelism"`
		MergeStrategy string `yaml:"mergeStrategy"`
	} `yaml:"export"`

	Diff struct {
		Strategy    string `yaml:"strategy"`
		Parallelism int    `yaml:"parallelism"`
		WithPrune   bool   `yaml:"withPrune"`
	} `yaml:"diff"`
}

// NewDefaultConfig returns a config with default values.
func NewDefaultConfig() *Config {
	config := &Config{}

	config.Defaults.Output = "yaml"
	config.Defaults.Debug = false

	config.Export.Extension = "yaml"
	config.Export.Format = "{{.metadata.namespace}}/{{.kind}}-{{.metadata.name}}"
	config.Export.Parallelism = 8
	config.Export.MergeStrategy = "none"

	config.Diff.Strategy = ""
	config.Diff.Parallelism = 8
	config.Diff.WithPrune = false

	return config
}

// LoadConfig loads configuration from file.
func LoadConfig(configFile string) (*Config, error) {
	config := NewDefaultConfig()

	if configFile == "" {
		return config, nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file.
func SaveConfig(config *Config, configFile string) error {
	dir := filepath.Dir(configFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path.
func GetConfigPath() string {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".rtk.yaml"
	}

	return filepath.Join(home, ".rtk.yaml")
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	configPath := GetConfigPath()
	dir := filepath.Dir(configPath)
	return os.MkdirAll(dir, 0755)
}
