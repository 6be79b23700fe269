// Package influxdb records itemstore statement metrics in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health checks.
//
// Every statement run through dbexec.Instrumented becomes one point:
//
//	db_statements,dialect=sqlite3,op=select,service=itemstore,status=ok duration_ms=0.42,rows=12i
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, map[string]string{
//	    influxdb.TagDialect: string(db.Dialect()),
//	})
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics are optional
//	}
//	defer client.Close()
//
//	exec := dbexec.NewInstrumented(sqlExec, client, log)
//
// # Thread Safety
//
// All Client methods are safe for concurrent use. Write errors surface
// asynchronously through SetOnError.
package influxdb
