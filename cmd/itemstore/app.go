package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/itemstore/internal/dbexec"
	"github.com/nerrad567/itemstore/internal/infrastructure/config"
	"github.com/nerrad567/itemstore/internal/infrastructure/database"
	"github.com/nerrad567/itemstore/internal/infrastructure/influxdb"
	"github.com/nerrad567/itemstore/internal/infrastructure/logging"
	"github.com/nerrad567/itemstore/internal/infrastructure/mqtt"
	"github.com/nerrad567/itemstore/internal/item"
)

var (
	_ dbexec.MetricsWriter = (*influxdb.Client)(nil)
	_ itemChangePublisher  = (*mqtt.Client)(nil)
)

// itemChangePublisher is the part of the MQTT client the repository needs.
type itemChangePublisher interface {
	PublishItemChange(ctx context.Context, action string, itemID int64, at time.Time) error
}

// itemEvents adapts an MQTT publisher to item.Publisher.
type itemEvents struct {
	target itemChangePublisher
}

// PublishItemEvent implements item.Publisher.
func (e itemEvents) PublishItemEvent(ctx context.Context, event item.Event) error {
	return e.target.PublishItemChange(ctx, string(event.Action), event.ItemID, event.Timestamp)
}

// app holds everything one command invocation needs.
type app struct {
	cfg  *config.Config
	log  *logging.Logger
	exec *dbexec.SQLExecutor

	// Optional side channels, nil when disabled or unreachable.
	influx *influxdb.Client
	mqtt   *mqtt.Client

	repo *item.Repository
}

// loadConfig resolves the config path and loads it.
//
// An explicit --config or ITEMSTORE_CONFIG must exist. The default path may
// be missing, in which case defaults and environment variables apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flag := cmd.Flag("config")
	if flag != nil && flag.Changed {
		return config.Load(flag.Value.String())
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(defaultConfigPath)
}

// openDatabase loads configuration, builds the logger and connects the executor.
// It never changes the schema.
func openDatabase(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Debug("configuration loaded", "command", cmd.Name())

	exec := dbexec.NewSQLExecutor(database.Config{
		URL:          cfg.Database.URL,
		WALMode:      cfg.Database.WALMode,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err := exec.Connect(cmd.Context()); err != nil {
		return nil, err
	}
	log.Debug("database connected", "dialect", exec.DB().Dialect())

	return &app{cfg: cfg, log: log, exec: exec}, nil
}

// openApp is openDatabase plus schema migration, the optional metrics and
// notification clients, and the item repository.
func openApp(cmd *cobra.Command) (*app, error) {
	a, err := openDatabase(cmd)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if err := a.exec.DB().Migrate(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	a.connectServices(ctx)

	// Only hand a non-nil client to the interface so the nil checks inside
	// Instrumented stay meaningful.
	var metrics dbexec.MetricsWriter
	if a.influx != nil {
		metrics = a.influx
	}
	executor := dbexec.NewInstrumented(a.exec, metrics, a.log.With("component", "dbexec"))

	a.repo = item.NewRepository(executor)
	a.repo.SetLogger(a.log.With("component", "item"))
	if a.mqtt != nil {
		a.repo.SetPublisher(itemEvents{target: a.mqtt})
	}

	return a, nil
}

// connectServices connects the enabled optional clients. A failure only
// disables the client.
func (a *app) connectServices(ctx context.Context) {
	if a.cfg.InfluxDB.Enabled {
		tags := map[string]string{influxdb.TagDialect: string(a.exec.DB().Dialect())}
		client, err := influxdb.Connect(ctx, a.cfg.InfluxDB, tags)
		if err != nil {
			a.log.Warn("influxdb unavailable, statement metrics disabled", "error", err)
		} else {
			client.SetOnError(func(err error) {
				a.log.Warn("influxdb write failed", "error", err)
			})
			a.influx = client
			a.log.Debug("influxdb connected", "url", a.cfg.InfluxDB.URL, "bucket", a.cfg.InfluxDB.Bucket)
		}
	}

	if a.cfg.MQTT.Enabled {
		client, err := mqtt.Connect(a.cfg.MQTT)
		if err != nil {
			a.log.Warn("mqtt unavailable, item events disabled", "error", err)
		} else {
			client.SetLogger(a.log.With("component", "mqtt"))
			a.mqtt = client
		}
	}
}

// errServiceUnavailable marks an enabled service whose client failed to connect.
var errServiceUnavailable = errors.New("enabled but not connected")

// healthReport collects one row per component for the check command.
type healthReport struct {
	rows [][]string

	// err is the first failure, nil when every component is healthy.
	err error
}

func (r *healthReport) add(name string, err error, detail string) {
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("%s: %w", name, err)
		}
		r.rows = append(r.rows, []string{name, "error", err.Error()})
		return
	}
	r.rows = append(r.rows, []string{name, "ok", detail})
}

func (r *healthReport) disabled(name string) {
	r.rows = append(r.rows, []string{name, "disabled", ""})
}

// health checks the database and every enabled service.
func (a *app) health(ctx context.Context) *healthReport {
	r := &healthReport{}

	db := a.exec.DB()
	if err := db.HealthCheck(ctx); err != nil {
		r.add("database", err, "")
	} else {
		r.add("database", nil, databaseDetail(db))
	}

	switch {
	case !a.cfg.MQTT.Enabled:
		r.disabled("mqtt")
	case a.mqtt == nil:
		r.add("mqtt", errServiceUnavailable, "")
	default:
		r.add("mqtt", a.mqtt.HealthCheck(ctx), a.cfg.MQTT.Broker.Host)
	}

	switch {
	case !a.cfg.InfluxDB.Enabled:
		r.disabled("influxdb")
	case a.influx == nil:
		r.add("influxdb", errServiceUnavailable, "")
	default:
		r.add("influxdb", a.influx.HealthCheck(ctx), a.cfg.InfluxDB.URL)
	}

	return r
}

// databaseDetail describes the pool: dialect, SQLite file and connection counts.
func databaseDetail(db *database.DB) string {
	stats := db.Stats()
	detail := string(db.Dialect())
	if path := db.Path(); path != "" {
		detail += " " + path
	}
	return fmt.Sprintf("%s, %d open / %d in use / max %d connections",
		detail, stats.OpenConnections, stats.InUse, stats.MaxOpenConnections)
}

// close releases everything in reverse order of opening. Errors are logged.
func (a *app) close() {
	if err := a.mqtt.Close(); err != nil {
		a.log.Error("error closing MQTT", "error", err)
	}
	if err := a.influx.Close(); err != nil {
		a.log.Error("error closing InfluxDB", "error", err)
	}
	if err := a.exec.Close(); err != nil {
		a.log.Error("error closing database", "error", err)
	}
}
