package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDefaultUnix(t *testing.T) {
	cfg := NewDefaultUnix()

	if cfg.Global.LogLevel != "INFO" {
		t.Errorf("Expected LogLevel to be INFO, got %s", cfg.Global.LogLevel)
	}
	if cfg.Global.MetricsPort != 8080 {
		t.Errorf("Expected MetricsPort to be 8080, got %d", cfg.Global.MetricsPort)
	}

	if cfg.PathType.Separator != "/" {
		t.Errorf("Expected separator /, got %s", cfg.PathType.Separator)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != "/" {
		t.Errorf("Expected roots [/], got %v", cfg.Roots)
	}
	if cfg.BlockSize != 8192 {
		t.Errorf("Expected BlockSize 8192, got %d", cfg.BlockSize)
	}
	if !cfg.HasView("basic") || !cfg.HasView("posix") {
		t.Error("expected basic and posix views enabled by default")
	}
	if !cfg.HasFeature("SYMBOLIC_LINKS") {
		t.Error("expected symbolic links enabled by default")
	}
}

func TestNewDefaultWindows(t *testing.T) {
	cfg := NewDefaultWindows()

	if cfg.PathType.Separator != `\` {
		t.Errorf(`Expected separator \, got %s`, cfg.PathType.Separator)
	}
	if cfg.HasFeature("SYMBOLIC_LINKS") {
		t.Error("expected symbolic links disabled on the default windows config")
	}
	if !cfg.HasView("dos") {
		t.Error("expected dos view enabled on the default windows config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  func() *Configuration
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			config: func() *Configuration { return NewDefaultUnix() },
		},
		{
			name: "zero block size",
			config: func() *Configuration {
				cfg := NewDefaultUnix()
				cfg.BlockSize = 0
				return cfg
			},
			wantErr: true,
			errMsg:  "block_size must be greater than 0",
		},
		{
			name: "no roots",
			config: func() *Configuration {
				cfg := NewDefaultUnix()
				cfg.Roots = nil
				return cfg
			},
			wantErr: true,
			errMsg:  "at least one root is required",
		},
		{
			name: "missing basic view",
			config: func() *Configuration {
				cfg := NewDefaultUnix()
				cfg.AttributeViews = []string{"owner"}
				return cfg
			},
			wantErr: true,
			errMsg:  "basic view must always be enabled",
		},
		{
			name: "invalid log level",
			config: func() *Configuration {
				cfg := NewDefaultUnix()
				cfg.Global.LogLevel = "INVALID"
				return cfg
			},
			wantErr: true,
			errMsg:  "invalid log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config()
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want error containing %v", err, tt.errMsg)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
global:
  log_level: DEBUG
  metrics_port: 9090

block_size: 4096
max_size: 1048576
working_directory: /work
`

	if err := os.WriteFile(configFile, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config file: %v", err)
	}

	cfg := NewDefaultUnix()
	if err := cfg.LoadFromFile(configFile); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Global.LogLevel != "DEBUG" {
		t.Errorf("Expected LogLevel to be DEBUG, got %s", cfg.Global.LogLevel)
	}
	if cfg.Global.MetricsPort != 9090 {
		t.Errorf("Expected MetricsPort to be 9090, got %d", cfg.Global.MetricsPort)
	}
	if cfg.BlockSize != 4096 {
		t.Errorf("Expected BlockSize 4096, got %d", cfg.BlockSize)
	}
}

func TestLoadFromFileNonExistent(t *testing.T) {
	cfg := NewDefaultUnix()
	if err := cfg.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error when loading non-existent config file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MEMVFS_LOG_LEVEL", "ERROR")
	t.Setenv("MEMVFS_METRICS_PORT", "9090")
	t.Setenv("MEMVFS_BLOCK_SIZE", "16384")
	t.Setenv("MEMVFS_MAX_SIZE", "2097152")
	t.Setenv("MEMVFS_METRICS_ENABLED", "false")

	cfg := NewDefaultUnix()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Global.LogLevel != "ERROR" {
		t.Errorf("Expected LogLevel to be ERROR, got %s", cfg.Global.LogLevel)
	}
	if cfg.Global.MetricsPort != 9090 {
		t.Errorf("Expected MetricsPort to be 9090, got %d", cfg.Global.MetricsPort)
	}
	if cfg.BlockSize != 16384 {
		t.Errorf("Expected BlockSize 16384, got %d", cfg.BlockSize)
	}
	if cfg.MaxSize != 2097152 {
		t.Errorf("Expected MaxSize 2097152, got %d", cfg.MaxSize)
	}
	if cfg.Monitoring.Metrics.Enabled {
		t.Error("expected metrics enabled to be false")
	}
}

func TestSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "saved_config.yaml")

	cfg := NewDefaultUnix()
	cfg.Global.LogLevel = "DEBUG"
	cfg.BlockSize = 16384

	if err := cfg.SaveToFile(configFile); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	newCfg := NewDefaultUnix()
	if err := newCfg.LoadFromFile(configFile); err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}

	if newCfg.Global.LogLevel != "DEBUG" {
		t.Errorf("Expected LogLevel to be DEBUG, got %s", newCfg.Global.LogLevel)
	}
	if newCfg.BlockSize != 16384 {
		t.Errorf("Expected BlockSize 16384, got %d", newCfg.BlockSize)
	}
}

func TestSaveToFileCreateDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := NewDefaultUnix()
	if err := cfg.SaveToFile(configFile); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Error("config file was not created")
	}
	if _, err := os.Stat(filepath.Dir(configFile)); os.IsNotExist(err) {
		t.Error("config directory was not created")
	}
}

