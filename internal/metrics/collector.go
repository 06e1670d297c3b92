package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/objectfs/memvfs/internal/blockstore"
	"github.com/objectfs/memvfs/pkg/vfserr"
)

// Collector instruments the engine's File Operations Layer and block pool
// with Prometheus metrics, and keeps a lightweight in-process summary per
// operation for cheap introspection without a scrape.
type Collector struct {
	mu     sync.RWMutex
	config *Config

	registry *prometheus.Registry

	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorCounter      *prometheus.CounterVec

	operations map[string]*OperationMetrics

	server *http.Server
}

// Config controls whether and how the Collector exports metrics.
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// OperationMetrics tracks a running count and duration summary for one
// verb of the File Operations Layer (createFile, write, move, ...).
type OperationMetrics struct {
	Count         int64
	TotalDuration time.Duration
	Errors        int64
	LastOperation time.Time
	AvgDuration   time.Duration
}

// NewCollector creates a Collector. If config is nil, an enabled default
// (port 8080, path /metrics, namespace memvfs) is used. If config.Enabled is
// false, metrics collection is a no-op: RecordOperation still updates the
// in-process summary but skips Prometheus registration and export.
func NewCollector(config *Config) (*Collector, error) {
	if config == nil {
		config = &Config{
			Enabled:   true,
			Port:      8080,
			Path:      "/metrics",
			Namespace: "memvfs",
		}
	}

	c := &Collector{
		config:     config,
		operations: make(map[string]*OperationMetrics),
	}

	if !config.Enabled {
		return c, nil
	}

	c.registry = prometheus.NewRegistry()
	c.initMetrics()
	if err := c.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return c, nil
}

// RegisterBlockPool wires gauges reporting the pool's live resource usage
// (blocks in use, blocks pooled, bytes resident) into the registry.
func (c *Collector) RegisterBlockPool(pool *blockstore.Pool) error {
	if !c.config.Enabled {
		return nil
	}

	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.config.Namespace,
			Subsystem: c.config.Subsystem,
			Name:      "blockstore_blocks_in_use",
			Help:      "Blocks currently allocated to RegularFiles.",
		}, func() float64 { return float64(pool.Stats().BlocksInUse) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.config.Namespace,
			Subsystem: c.config.Subsystem,
			Name:      "blockstore_blocks_pooled",
			Help:      "Freed blocks retained in the pool's free-list.",
		}, func() float64 { return float64(pool.Stats().BlocksPooled) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.config.Namespace,
			Subsystem: c.config.Subsystem,
			Name:      "blockstore_bytes_resident",
			Help:      "Bytes currently held by in-use blocks.",
		}, func() float64 { return float64(pool.Stats().BytesResident) }),
	}

	for _, g := range gauges {
		if err := c.registry.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// Start serves /metrics (and /health) over HTTP until ctx is canceled.
func (c *Collector) Start(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(c.config.Path, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", c.healthHandler)
	mux.HandleFunc("/debug/operations", c.debugOperationsHandler)

	c.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", c.config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Stop shuts down the metrics HTTP server, if running.
func (c *Collector) Stop(ctx context.Context) error {
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

// RecordOperation records one invocation of a File Operations Layer verb.
// err is the error the operation returned, or nil on success; when non-nil
// its vfserr.Kind (falling back to "other") labels the error counter.
func (c *Collector) RecordOperation(op string, duration time.Duration, err error) {
	c.mu.Lock()
	m, exists := c.operations[op]
	if !exists {
		m = &OperationMetrics{}
		c.operations[op] = m
	}
	m.Count++
	m.TotalDuration += duration
	m.LastOperation = time.Now()
	m.AvgDuration = time.Duration(int64(m.TotalDuration) / m.Count)
	if err != nil {
		m.Errors++
	}
	c.mu.Unlock()

	if !c.config.Enabled {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	c.operationCounter.With(prometheus.Labels{"op": op, "result": status}).Inc()
	c.operationDuration.With(prometheus.Labels{"op": op}).Observe(duration.Seconds())
	if err != nil {
		kind, ok := vfserr.KindOf(err)
		if !ok {
			kind = "other"
		}
		c.errorCounter.With(prometheus.Labels{"op": op, "kind": string(kind)}).Inc()
	}
}

// Snapshot returns a copy of the in-process per-operation summary.
func (c *Collector) Snapshot() map[string]OperationMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]OperationMetrics, len(c.operations))
	for k, v := range c.operations {
		out[k] = *v
	}
	return out
}

func (c *Collector) initMetrics() {
	c.operationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.config.Namespace,
			Subsystem: c.config.Subsystem,
			Name:      "vfs_operations_total",
			Help:      "Total number of File Operations Layer verb invocations.",
		},
		[]string{"op", "result"},
	)

	c.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.config.Namespace,
			Subsystem: c.config.Subsystem,
			Name:      "vfs_operation_duration_seconds",
			Help:      "Duration of File Operations Layer verbs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 12),
		},
		[]string{"op"},
	)

	c.errorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.config.Namespace,
			Subsystem: c.config.Subsystem,
			Name:      "vfs_errors_total",
			Help:      "Total number of verb failures by vfserr.Kind.",
		},
		[]string{"op", "kind"},
	)
}

func (c *Collector) registerMetrics() error {
	for _, m := range []prometheus.Collector{c.operationCounter, c.operationDuration, c.errorCounter} {
		if err := c.registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"memvfs-metrics"}`))
}

func (c *Collector) debugOperationsHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := c.Snapshot()

	w.Header().Set("Content-Type", "text/plain")
	writef := func(format string, args ...interface{}) { _, _ = fmt.Fprintf(w, format, args...) }

	writef("%-20s %10s %10s %14s %10s\n", "Operation", "Count", "Errors", "Avg Duration", "Last Op")
	writef("%-20s %10s %10s %14s %10s\n", "---------", "-----", "------", "------------", "-------")
	for name, op := range snapshot {
		writef("%-20s %10d %10d %14v %10s\n", name, op.Count, op.Errors, op.AvgDuration, op.LastOperation.Format("15:04:05"))
	}
}
