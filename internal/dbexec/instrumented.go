package dbexec

import (
	"context"
	"time"
)

// MetricsWriter receives one measurement per executed statement.
// Implementations must not block; *influxdb.Client batches asynchronously.
type MetricsWriter interface {
	WriteStatementMetric(op string, duration time.Duration, rows int64, failed bool)
}

// Logger is the logging surface Instrumented needs.
type Logger interface {
	Debug(msg string, args ...any)
}

// Instrumented wraps an Executor, timing every call and reporting it to a
// MetricsWriter and a Logger. Results and errors pass through unchanged.
type Instrumented struct {
	next    Executor
	metrics MetricsWriter
	logger  Logger
}

// NewInstrumented wraps next. metrics and logger may be nil.
func NewInstrumented(next Executor, metrics MetricsWriter, logger Logger) *Instrumented {
	return &Instrumented{next: next, metrics: metrics, logger: logger}
}

// Insert forwards to the wrapped Executor. A successful insert counts as one row.
func (in *Instrumented) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	id, err := in.next.Insert(ctx, query, args...)
	var n int64
	if err == nil {
		n = 1
	}
	in.record(OpInsert, start, n, err)
	return id, err
}

// Update forwards to the wrapped Executor.
func (in *Instrumented) Update(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	n, err := in.next.Update(ctx, query, args...)
	in.record(OpUpdate, start, n, err)
	return n, err
}

// Delete forwards to the wrapped Executor.
func (in *Instrumented) Delete(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	n, err := in.next.Delete(ctx, query, args...)
	in.record(OpDelete, start, n, err)
	return n, err
}

// Select forwards to the wrapped Executor.
func (in *Instrumented) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	start := time.Now()
	rows, err := in.next.Select(ctx, query, args...)
	in.record(OpSelect, start, int64(len(rows)), err)
	return rows, err
}

func (in *Instrumented) record(op string, start time.Time, rows int64, err error) {
	elapsed := time.Since(start)

	if in.metrics != nil {
		in.metrics.WriteStatementMetric(op, elapsed, rows, err != nil)
	}

	if in.logger == nil {
		return
	}
	if err != nil {
		in.logger.Debug("statement failed", "op", op, "duration", elapsed, "error", err)
		return
	}
	in.logger.Debug("statement executed", "op", op, "duration", elapsed, "rows", rows)
}
