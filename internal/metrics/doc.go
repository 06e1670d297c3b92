/*
Package metrics instruments the File Operations Layer with Prometheus
metrics and a lightweight in-process summary.

Collector tracks each verb invocation with RecordOperation, exporting:

Counters:
  - memvfs_vfs_operations_total{op,result}: invocations by verb and outcome
  - memvfs_vfs_errors_total{op,kind}: failures by verb and vfserr.Kind

Histograms:
  - memvfs_vfs_operation_duration_seconds{op}: per-verb latency distribution

RegisterBlockPool additionally wires gauges reporting a blockstore.Pool's
live resource usage (blocks in use, blocks pooled, bytes resident).

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   true,
		Port:      8080,
		Namespace: "memvfs",
	})
	if err != nil {
		log.Fatal(err)
	}
	collector.RegisterBlockPool(pool)
	collector.Start(ctx)
	defer collector.Stop(ctx)

	start := time.Now()
	err = fs.Delete(ctx, path, opts)
	collector.RecordOperation("delete", time.Since(start), err)

RecordOperation always updates the in-process Snapshot, even when the
collector is disabled, so callers can inspect recent activity without a
Prometheus scrape. The HTTP server started by Start exposes /metrics
(Prometheus text format), /health, and /debug/operations (a tabular
summary of Snapshot).
*/
package metrics
