// Package metric provides Prometheus metrics for GovMesh.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, governance counters and HTTP handler
//   - collector.go: scrape-time collector for storage statistics
//
// Metrics include:
//
//   - Governor call latency and result codes
//   - Proposal, vote and deposit counters
//   - Checkpoint series growth
//   - HTTP request counters
//   - Storage statistics
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
