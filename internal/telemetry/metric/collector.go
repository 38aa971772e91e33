package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/govmesh-go/internal/storage/kv"
)

// StoreCollector exports kv.Store statistics at scrape time.
type StoreCollector struct {
	store   kv.Store
	timeout time.Duration

	keys      *prometheus.Desc
	totalSize *prometheus.Desc
	skew      *prometheus.Desc
	up        *prometheus.Desc
}

// NewStoreCollector creates a collector reading store on every scrape.
func NewStoreCollector(store kv.Store) *StoreCollector {
	return &StoreCollector{
		store:   store,
		timeout: 2 * time.Second,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "keys"),
			"Number of keys held by the store (memory engine only)",
			[]string{"engine"}, nil,
		),
		totalSize: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "size_bytes"),
			"On-disk size of the store in bytes",
			[]string{"engine"}, nil,
		),
		skew: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "shard_skew"),
			"Largest memory shard size over the mean shard size",
			[]string{"engine"}, nil,
		),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "up"),
			"Whether the last stats read succeeded",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.totalSize
	ch <- c.skew
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.store.Stats(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(stats.Keys), stats.Engine)
	ch <- prometheus.MustNewConstMetric(c.totalSize, prometheus.GaugeValue, float64(stats.TotalSize), stats.Engine)
	if stats.Engine == "memory" {
		ch <- prometheus.MustNewConstMetric(c.skew, prometheus.GaugeValue, stats.ShardSkew, stats.Engine)
	}
}
