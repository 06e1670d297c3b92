package vfs

import (
	"fmt"
	"os"

	"github.com/objectfs/memvfs/internal/blockstore"
	"github.com/objectfs/memvfs/internal/config"
	"github.com/objectfs/memvfs/internal/logging"
	"github.com/objectfs/memvfs/internal/metrics"
	"github.com/objectfs/memvfs/internal/vfspath"
	"github.com/objectfs/memvfs/pkg/types"
)

// Configuration is the in-process source of truth a Filesystem binds to: a
// config.Configuration resolved into live objects (a *vfspath.Type, a
// block pool sized to fit, the attribute providers to register, a time
// source) rather than the plain-data, YAML-loadable form that feeds it.
type Configuration struct {
	raw *config.Configuration

	PathType   *vfspath.Type
	Roots      []string
	WorkingDir string

	BlockSize    int64
	MaxSize      int64
	MaxCacheSize int64

	Providers    []AttributeProvider
	SymlinkLimit int

	TimeSource types.FileTimeSource
	Metrics    *metrics.Config
	Logger     *logging.StructuredLogger
}

// NewConfiguration resolves a config.Configuration into the live objects
// the engine binds to. providers lets a caller supply a custom provider
// set; nil selects DefaultProviders filtered to raw.AttributeViews.
func NewConfiguration(raw *config.Configuration, providers []AttributeProvider, timeSource types.FileTimeSource) (*Configuration, error) {
	if raw == nil {
		raw = config.NewDefaultUnix()
	}
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if timeSource == nil {
		timeSource = types.SystemTimeSource{}
	}

	if providers == nil {
		providers = filterProviders(DefaultProviders(), raw.AttributeViews)
	}

	pt := vfspath.NewType(raw.PathType, raw.NameCanonicalNormalization, raw.NameDisplayNormalization)

	logLevel, err := logging.ParseLogLevel(raw.Global.LogLevel)
	if err != nil {
		logLevel = logging.INFO
	}
	loggerConfig := logging.DefaultStructuredLoggerConfig()
	loggerConfig.Level = logLevel
	if raw.Global.LogFile != "" {
		file, err := os.OpenFile(raw.Global.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		loggerConfig.Output = file
	}
	logger, err := logging.NewStructuredLogger(loggerConfig)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	logger = logger.WithComponent("filesystem")

	return &Configuration{
		raw:          raw,
		PathType:     pt,
		Roots:        raw.Roots,
		WorkingDir:   raw.WorkingDirectory,
		BlockSize:    raw.BlockSize,
		MaxSize:      raw.MaxSize,
		MaxCacheSize: raw.MaxCacheSize,
		Providers:    providers,
		SymlinkLimit: DefaultSymlinkLimit,
		TimeSource:   timeSource,
		Metrics: &metrics.Config{
			Enabled:   raw.Monitoring.Metrics.Enabled,
			Port:      raw.Global.MetricsPort,
			Path:      "/metrics",
			Namespace: "memvfs",
		},
		Logger: logger,
	}, nil
}

func filterProviders(all []AttributeProvider, enabled []string) []AttributeProvider {
	wanted := make(map[string]bool, len(enabled))
	for _, v := range enabled {
		wanted[v] = true
	}
	out := make([]AttributeProvider, 0, len(all))
	for _, p := range all {
		if wanted[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// HasFeature reports whether the backing configuration enables the named
// feature.
func (c *Configuration) HasFeature(name string) bool { return c.raw.HasFeature(name) }

// newBlockPool builds a new block pool sized per this configuration.
func (c *Configuration) newBlockPool() *blockstore.Pool {
	return blockstore.NewPool(c.BlockSize, c.MaxSize, c.MaxCacheSize)
}
