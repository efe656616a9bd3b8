package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if config.Defaults.Output != "yaml" {
		t.Errorf("expected default output to be 'yaml', got %s", config.Defaults.Output)
	}
	if config.Defaults.Debug != false {
		t.Errorf("expected default debug to be false, got %t", config.Defaults.Debug)
	}
	if config.Export.Extension != "yaml" {
		t.Errorf("expected default export extension to be 'yaml', got %s", config.Export.Extension)
	}
	if config.Export.Parallelism != 8 {
		t.Errorf("expected default export parallelism to be 8, got %d", config.Export.Parallelism)
	}
	if config.Export.MergeStrategy != "none" {
		t.Errorf("expected default merge strategy to be 'none', got %s", config.Export.MergeStrategy)
	}
	if config.Diff.Parallelism != 8 {
		t.Errorf("expected default diff parallelism to be 8, got %d", config.Diff.Parallelism)
	}
	if config.Diff.WithPrune {
		t.Error("expected default diff.withPrune to be false")
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{name: "empty config file path", config: "", wantErr: false},
		{name: "valid config", config: createTempConfig(t, validConfigYAML), wantErr: false},
		{name: "non-existent file", config: "/non/existent/file.yaml", wantErr: false},
		{name: "invalid yaml", config: createTempConfig(t, "invalid: yaml: content: ["), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig(tt.config)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if tt.name == "valid config" {
				if config.Defaults.Output != "json" {
					t.Errorf("expected output json, got %s", config.Defaults.Output)
				}
				if config.Export.MergeStrategy != "replace-envs" {
					t.Errorf("expected merge strategy replace-envs, got %s", config.Export.MergeStrategy)
				}
				if config.Diff.Strategy != "native" {
					t.Errorf("expected diff strategy native, got %s", config.Diff.Strategy)
				}
			} else {
				if config.Defaults.Output != "yaml" {
					t.Errorf("expected default output yaml, got %s", config.Defaults.Output)
				}
			}
		})
	}
}

func TestSaveConfig(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	config := NewDefaultConfig()
	config.Defaults.Output = "json"
	config.Diff.Strategy = "server"

	if err := SaveConfig(config, configFile); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Defaults.Output != "json" {
		t.Errorf("expected output 'json', got %s", loaded.Defaults.Output)
	}
	if loaded.Diff.Strategy != "server" {
		t.Errorf("expected diff strategy 'server', got %s", loaded.Diff.Strategy)
	}
}

func TestSaveConfigCreateDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "nested", "dir", "config.yaml")

	if err := SaveConfig(NewDefaultConfig(), configFile); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Error("config file was not created in nested directory")
	}
}

func TestGetConfigPath(t *testing.T) {
	originalConfigFile := viper.ConfigFileUsed()
	defer func() { viper.SetConfigFile(originalConfigFile) }()

	testConfigFile := "/test/config.yaml"
	viper.SetConfigFile(testConfigFile)
	if path := GetConfigPath(); path != testConfigFile {
		t.Errorf("expected path %s, got %s", testConfigFile, path)
	}

	viper.SetConfigFile("")
	path := GetConfigPath()
	if path == "" {
		t.Error("expected non-empty config path")
	}
	if !filepath.IsAbs(path) && path != ".rtk.yaml" {
		t.Errorf("expected absolute path or '.rtk.yaml', got %s", path)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	err := EnsureConfigDir()
	if err != nil && !os.IsPermission(err) {
		t.Errorf("EnsureConfigDir failed: %v", err)
	}
}

const validConfigYAML = `
defaults:
  output: json
  debug: false

export:
  extension: json
  format: "{{.kind}}-{{.metadata.name}}"
  parallelism: 4
  mergeStrategy: replace-envs

diff:
  strategy: native
  parallelism: 4
  withPrune: true
`

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp config file: %v", err)
	}
	return configFile
}
