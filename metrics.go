package colstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAppend is called after each append with the number of rows
	// and new chunks.
	RecordAppend(rows int64, chunks int, duration time.Duration, err error)

	// RecordRead is called after each read with the number of rows
	// returned and chunks decompressed.
	RecordRead(rows int64, chunks int, duration time.Duration, err error)

	// RecordWrite is called after each in-place write with the number of
	// rows written and chunks rewritten.
	RecordWrite(rows int64, chunks int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(int64, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRead(int64, int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordWrite(int64, int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	AppendCount     atomic.Int64
	AppendErrors    atomic.Int64
	AppendedRows    atomic.Int64
	ChunksAppended  atomic.Int64
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadRows        atomic.Int64
	ChunksRead      atomic.Int64
	ReadTotalNanos  atomic.Int64
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WrittenRows     atomic.Int64
	ChunksRewritten atomic.Int64
	WriteTotalNanos atomic.Int64
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(rows int64, chunks int, _ time.Duration, err error) {
	b.AppendCount.Add(1)
	if err != nil {
		b.AppendErrors.Add(1)
		return
	}
	b.AppendedRows.Add(rows)
	b.ChunksAppended.Add(int64(chunks))
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(rows int64, chunks int, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
		return
	}
	b.ReadRows.Add(rows)
	b.ChunksRead.Add(int64(chunks))
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(rows int64, chunks int, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
		return
	}
	b.WrittenRows.Add(rows)
	b.ChunksRewritten.Add(int64(chunks))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:     b.AppendCount.Load(),
		AppendErrors:    b.AppendErrors.Load(),
		AppendedRows:    b.AppendedRows.Load(),
		ChunksAppended:  b.ChunksAppended.Load(),
		ReadCount:       b.ReadCount.Load(),
		ReadErrors:      b.ReadErrors.Load(),
		ReadRows:        b.ReadRows.Load(),
		ChunksRead:      b.ChunksRead.Load(),
		ReadAvgNanos:    avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		WriteCount:      b.WriteCount.Load(),
		WriteErrors:     b.WriteErrors.Load(),
		WrittenRows:     b.WrittenRows.Load(),
		ChunksRewritten: b.ChunksRewritten.Load(),
		WriteAvgNanos:   avg(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
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
	AppendCount     int64
	AppendErrors    int64
	AppendedRows    int64
	ChunksAppended  int64
	ReadCount       int64
	ReadErrors      int64
	ReadRows        int64
	ChunksRead      int64
	ReadAvgNanos    int64
	WriteCount      int64
	WriteErrors     int64
	WrittenRows     int64
	ChunksRewritten int64
	WriteAvgNanos   int64
}
