package lexigo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// prommetrics provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordAdd is called after each single-document add.
	RecordAdd(duration time.Duration, err error)

	// RecordBatchAdd is called after each batch add.
	// count is the number of records attempted, failed is the number that failed.
	RecordBatchAdd(count, failed int, duration time.Duration)

	// RecordUpsert is called after each upsert.
	RecordUpsert(duration time.Duration, err error)

	// RecordDelete is called after each delete.
	RecordDelete(duration time.Duration, err error)

	// RecordSearch is called after each search. results is the number of
	// matches returned.
	RecordSearch(results int, duration time.Duration, err error)

	// RecordGet is called after each lookup by external or internal id.
	RecordGet(found bool, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBatchAdd(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordUpsert(time.Duration, error)      {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)      {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordGet(bool, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount       atomic.Int64
	AddErrors      atomic.Int64
	AddTotalNanos  atomic.Int64
	BatchAddCount  atomic.Int64
	BatchAddItems  atomic.Int64
	BatchAddFailed atomic.Int64
	UpsertCount    atomic.Int64
	UpsertErrors   atomic.Int64
	DeleteCount    atomic.Int64
	DeleteErrors   atomic.Int64
	SearchCount    atomic.Int64
	SearchErrors   atomic.Int64
	SearchResults  atomic.Int64
	SearchTotalNs  atomic.Int64
	GetCount       atomic.Int64
	GetMisses      atomic.Int64
	GetErrors      atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordBatchAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchAdd(count, failed int, _ time.Duration) {
	b.BatchAddCount.Add(1)
	b.BatchAddItems.Add(int64(count))
	b.BatchAddFailed.Add(int64(failed))
}

// RecordUpsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpsert(_ time.Duration, err error) {
	b.UpsertCount.Add(1)
	if err != nil {
		b.UpsertErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNs.Add(duration.Nanoseconds())
	b.SearchResults.Add(int64(results))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(found bool, _ time.Duration, err error) {
	b.GetCount.Add(1)
	if err != nil {
		b.GetErrors.Add(1)
		return
	}
	if !found {
		b.GetMisses.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:       b.AddCount.Load(),
		AddErrors:      b.AddErrors.Load(),
		AddAvgNanos:    avg(b.AddTotalNanos.Load(), b.AddCount.Load()),
		BatchAddCount:  b.BatchAddCount.Load(),
		BatchAddItems:  b.BatchAddItems.Load(),
		BatchAddFailed: b.BatchAddFailed.Load(),
		UpsertCount:    b.UpsertCount.Load(),
		UpsertErrors:   b.UpsertErrors.Load(),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteErrors:   b.DeleteErrors.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchResults:  b.SearchResults.Load(),
		SearchAvgNanos: avg(b.SearchTotalNs.Load(), b.SearchCount.Load()),
		GetCount:       b.GetCount.Load(),
		GetMisses:      b.GetMisses.Load(),
		GetErrors:      b.GetErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount       int64
	AddErrors      int64
	AddAvgNanos    int64
	BatchAddCount  int64
	BatchAddItems  int64
	BatchAddFailed int64
	UpsertCount    int64
	UpsertErrors   int64
	DeleteCount    int64
	DeleteErrors   int64
	SearchCount    int64
	SearchErrors   int64
	SearchResults  int64
	SearchAvgNanos int64
	GetCount       int64
	GetMisses      int64
	GetErrors      int64
}
