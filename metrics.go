package seekline

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/seekline/cursor"
)

// Estimator names passed to MetricsCollector.RecordEstimate.
const (
	EstimateCompressionRatio = "compression_ratio"
	EstimateFileSize         = "file_size"
	EstimateLineLength       = "line_length"
	EstimateLineCount        = "line_count"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    searchHistogram prometheus.Histogram
//	    refillBytes     prometheus.Counter
//	}
//
//	func (p *PrometheusCollector) RecordRefill(dir cursor.Direction, bytes int) {
//	    p.refillBytes.Add(float64(bytes))
//	}
type MetricsCollector interface {
	// RecordSearch is called after each search. probes is the number of
	// bisection steps, scanned the number of lines read linearly.
	RecordSearch(probes, scanned int, duration time.Duration, err error)

	// RecordEstimate is called after each estimator run. kind is one of the
	// Estimate* constants.
	RecordEstimate(kind string, samples int64, duration time.Duration, err error)

	// RecordRefill is called whenever a cursor window is loaded from the
	// underlying stream.
	RecordRefill(dir cursor.Direction, bytes int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordEstimate(string, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRefill(cursor.Direction, int)                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchProbes     atomic.Int64
	SearchScanned    atomic.Int64
	SearchTotalNanos atomic.Int64
	EstimateCount    atomic.Int64
	EstimateErrors   atomic.Int64
	EstimateSamples  atomic.Int64
	RefillCount      atomic.Int64
	RefillBytes      atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(probes, scanned int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchProbes.Add(int64(probes))
	b.SearchScanned.Add(int64(scanned))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordEstimate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEstimate(_ string, samples int64, _ time.Duration, err error) {
	b.EstimateCount.Add(1)
	b.EstimateSamples.Add(samples)
	if err != nil {
		b.EstimateErrors.Add(1)
	}
}

// RecordRefill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRefill(_ cursor.Direction, bytes int) {
	b.RefillCount.Add(1)
	b.RefillBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:     b.SearchCount.Load(),
		SearchErrors:    b.SearchErrors.Load(),
		SearchProbes:    b.SearchProbes.Load(),
		SearchScanned:   b.SearchScanned.Load(),
		SearchAvgNanos:  b.getAvgSearchNanos(),
		EstimateCount:   b.EstimateCount.Load(),
		EstimateErrors:  b.EstimateErrors.Load(),
		EstimateSamples: b.EstimateSamples.Load(),
		RefillCount:     b.RefillCount.Load(),
		RefillBytes:     b.RefillBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SearchCount     int64
	SearchErrors    int64
	SearchProbes    int64
	SearchScanned   int64
	SearchAvgNanos  int64
	EstimateCount   int64
	EstimateErrors  int64
	EstimateSamples int64
	RefillCount     int64
	RefillBytes     int64
}

// refillObserver forwards cursor refills to a MetricsCollector.
type refillObserver struct{ mc MetricsCollector }

func (o refillObserver) OnRefill(dir cursor.Direction, bytes int) { o.mc.RecordRefill(dir, bytes) }

// searchProbe captures the statistics of a single search.
type searchProbe struct {
	probes  int
	scanned int
}

func (p *searchProbe) OnSearch(probes, scanned int, _ error) {
	p.probes = probes
	p.scanned = scanned
}
