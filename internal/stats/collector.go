package stats

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the dashboard counters as Prometheus gauges, computed on scrape.
type Collector struct {
	agg     *Aggregator
	timeout time.Duration

	documents *prometheus.Desc
	pending   *prometheus.Desc
	storage   *prometheus.Desc
}

// NewCollector creates a Collector over agg.
func NewCollector(agg *Aggregator) *Collector {
	return &Collector{
		agg:     agg,
		timeout: 2 * time.Second,
		documents: prometheus.NewDesc(
			"docvault_documents_total",
			"Number of documents currently stored.",
			nil, nil,
		),
		pending: prometheus.NewDesc(
			"docvault_pending_approvals",
			"Number of documents awaiting an approval decision.",
			nil, nil,
		),
		storage: prometheus.NewDesc(
			"docvault_storage_used_bytes",
			"Sum of the sizes of all stored documents.",
			nil, nil,
		),
	}
}

var _ prometheus.Collector = (*Collector)(nil)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.documents
	ch <- c.pending
	ch <- c.storage
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	s, err := c.agg.Stats(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.documents, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.documents, prometheus.GaugeValue, float64(s.TotalDocuments))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.PendingApprovals))
	ch <- prometheus.MustNewConstMetric(c.storage, prometheus.GaugeValue, float64(s.StorageUsedBytes))
}
