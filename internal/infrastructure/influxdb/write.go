package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Statement metric names.
const (
	// MeasurementStatements holds one point per executed statement.
	MeasurementStatements = "db_statements"

	statusOK    = "ok"
	statusError = "error"
)

// WriteStatementMetric records one executed statement.
//
// The point is tagged with the operation (insert, update, delete, select) and
// status (ok or error) on top of the client's default tags, and carries
// duration_ms and rows fields. The write is queued without blocking and
// dropped when the client is not connected.
//
// Example:
//
//	client.WriteStatementMetric("select", 3*time.Millisecond, 12, false)
func (c *Client) WriteStatementMetric(op string, duration time.Duration, rows int64, failed bool) {
	if c == nil {
		return
	}
	c.writePoint(statementPoint(op, duration, rows, failed, time.Now()))
}

// writePoint queues p unless the client is closed. The read lock keeps
// Close from releasing the writer mid-call.
func (c *Client) writePoint(p *write.Point) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.open {
		return
	}
	c.writer.WritePoint(p)
}

// statementPoint builds the db_statements point for one statement.
func statementPoint(op string, duration time.Duration, rows int64, failed bool, ts time.Time) *write.Point {
	status := statusOK
	if failed {
		status = statusError
	}

	return write.NewPoint(
		MeasurementStatements,
		map[string]string{
			"op":     op,
			"status": status,
		},
		map[string]interface{}{
			"duration_ms": float64(duration) / float64(time.Millisecond),
			"rows":        rows,
		},
		ts,
	)
}
