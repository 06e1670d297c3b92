// Package config loads and validates the Configuration a filesystem
// instance is built from: path syntax, roots, block sizing, enabled
// attribute views/features, plus the ambient logging and metrics settings
// every deployment of the engine carries.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// OSFlavor selects the path-syntax and default-attribute-view family a
// Configuration targets.
type OSFlavor string

const (
	OSUnix    OSFlavor = "unix"
	OSOSX     OSFlavor = "osx"
	OSWindows OSFlavor = "windows"
)

// NormalizationForm is a Unicode normalization form applied to Name tokens,
// or None to leave names untouched.
type NormalizationForm string

const (
	NormalizationNone NormalizationForm = ""
	NormalizationNFC  NormalizationForm = "NFC"
	NormalizationNFD  NormalizationForm = "NFD"
)

// PathType describes how paths are parsed and rendered for a given OS
// flavor: the separator, whether a drive-letter-style root is expected, and
// whether names compare case-sensitively.
type PathType struct {
	Flavor        OSFlavor `yaml:"flavor"`
	Separator     string   `yaml:"separator"`
	CaseSensitive bool     `yaml:"case_sensitive"`
}

// UnixPathType is the POSIX path syntax: "/" separator, case-sensitive.
func UnixPathType() PathType {
	return PathType{Flavor: OSUnix, Separator: "/", CaseSensitive: true}
}

// OSXPathType is Unix syntax with case-insensitive (but case-preserving)
// name comparison, matching HFS+'s default.
func OSXPathType() PathType {
	return PathType{Flavor: OSOSX, Separator: "/", CaseSensitive: false}
}

// WindowsPathType is the Windows path syntax: "\" separator,
// case-insensitive names.
func WindowsPathType() PathType {
	return PathType{Flavor: OSWindows, Separator: `\`, CaseSensitive: false}
}

// Configuration is the declarative description of a filesystem instance,
// per spec's External Interfaces configuration surface.
type Configuration struct {
	PathType                     PathType          `yaml:"path_type"`
	Roots                        []string          `yaml:"roots"`
	WorkingDirectory             string            `yaml:"working_directory"`
	NameCanonicalNormalization    NormalizationForm `yaml:"name_canonical_normalization"`
	NameDisplayNormalization      NormalizationForm `yaml:"name_display_normalization"`
	PathEqualityUsesCanonicalForm bool              `yaml:"path_equality_uses_canonical_form"`

	BlockSize    int64 `yaml:"block_size"`
	MaxSize      int64 `yaml:"max_size"`
	MaxCacheSize int64 `yaml:"max_cache_size"`

	AttributeViews        []string          `yaml:"attribute_views"`
	AttributeProviders     []string          `yaml:"attribute_providers"`
	DefaultAttributeValues map[string]string `yaml:"default_attribute_values"`
	SupportedFeatures      []string          `yaml:"supported_features"`

	Global     GlobalConfig     `yaml:"global"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// GlobalConfig carries ambient process-level settings: log level/file and
// the ports the metrics/health endpoints listen on.
type GlobalConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsPort int    `yaml:"metrics_port"`
	HealthPort  int    `yaml:"health_port"`
}

// MonitoringConfig carries ambient observability settings.
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig controls whether operation metrics are collected and
// exported via Prometheus.
type MetricsConfig struct {
	Enabled    bool `yaml:"enabled"`
	Prometheus bool `yaml:"prometheus"`
}

// LoggingConfig controls the structured logger's output format.
type LoggingConfig struct {
	Structured bool   `yaml:"structured"`
	Format     string `yaml:"format"`
}

// NewDefaultUnix returns a Configuration matching a typical Unix-style
// filesystem: single root "/", 8 KiB blocks, basic+owner+posix+unix views,
// symlinks and hard links enabled.
func NewDefaultUnix() *Configuration {
	return &Configuration{
		PathType:                      UnixPathType(),
		Roots:                         []string{"/"},
		WorkingDirectory:              "/work",
		NameCanonicalNormalization:    NormalizationNone,
		NameDisplayNormalization:      NormalizationNone,
		PathEqualityUsesCanonicalForm: true,
		BlockSize:                     8192,
		MaxSize:                       4 << 30,
		MaxCacheSize:                  64 << 20,
		AttributeViews:                []string{"basic", "owner", "posix", "unix"},
		DefaultAttributeValues:        map[string]string{},
		SupportedFeatures:             []string{"LINKS", "SYMBOLIC_LINKS", "FILE_CHANNEL"},
		Global: GlobalConfig{
			LogLevel:    "INFO",
			MetricsPort: 8080,
			HealthPort:  8081,
		},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{Enabled: true, Prometheus: true},
			Logging: LoggingConfig{Structured: true, Format: "json"},
		},
	}
}

// NewDefaultWindows returns a Configuration matching a typical Windows-style
// filesystem: a single "C:\" root, basic+owner+dos views, no symlinks.
func NewDefaultWindows() *Configuration {
	c := NewDefaultUnix()
	c.PathType = WindowsPathType()
	c.Roots = []string{`C:\`}
	c.WorkingDirectory = `C:\work`
	c.AttributeViews = []string{"basic", "owner", "dos"}
	c.SupportedFeatures = []string{"FILE_CHANNEL"}
	return c
}

// LoadFromFile loads and merges configuration from a YAML file.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv overrides select fields from environment variables.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("MEMVFS_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("MEMVFS_LOG_FILE"); val != "" {
		c.Global.LogFile = val
	}
	if val := os.Getenv("MEMVFS_METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Global.MetricsPort = port
		}
	}
	if val := os.Getenv("MEMVFS_BLOCK_SIZE"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.BlockSize = n
		}
	}
	if val := os.Getenv("MEMVFS_MAX_SIZE"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.MaxSize = n
		}
	}
	if val := os.Getenv("MEMVFS_MAX_CACHE_SIZE"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.MaxCacheSize = n
		}
	}
	if val := os.Getenv("MEMVFS_WORKING_DIRECTORY"); val != "" {
		c.WorkingDirectory = val
	}
	if val := os.Getenv("MEMVFS_METRICS_ENABLED"); val != "" {
		c.Monitoring.Metrics.Enabled = strings.ToLower(val) == "true"
	}

	return nil
}

// SaveToFile writes the configuration out as YAML.
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for internally-consistent values.
func (c *Configuration) Validate() error {
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be greater than 0")
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("max_size must be greater than 0")
	}
	if c.MaxCacheSize < 0 {
		return fmt.Errorf("max_cache_size must not be negative")
	}
	if len(c.Roots) == 0 {
		return fmt.Errorf("at least one root is required")
	}
	if c.WorkingDirectory == "" {
		return fmt.Errorf("working_directory is required")
	}
	if c.PathType.Separator == "" {
		return fmt.Errorf("path_type.separator is required")
	}
	if len(c.AttributeViews) == 0 {
		return fmt.Errorf("at least one attribute view must be enabled")
	}
	hasBasic := false
	for _, v := range c.AttributeViews {
		if v == "basic" {
			hasBasic = true
			break
		}
	}
	if !hasBasic {
		return fmt.Errorf("the basic view must always be enabled")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if c.Global.LogLevel == level {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.Global.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// HasFeature reports whether the named feature is in SupportedFeatures.
func (c *Configuration) HasFeature(name string) bool {
	for _, f := range c.SupportedFeatures {
		if f == name {
			return true
		}
	}
	return false
}

// HasView reports whether the named attribute view is enabled.
func (c *Configuration) HasView(name string) bool {
	for _, v := range c.AttributeViews {
		if v == name {
			return true
		}
	}
	return false
}
