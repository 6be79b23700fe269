package influxdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/itemstore/internal/infrastructure/config"
)

const (
	// pingTimeout bounds the connectivity check in Connect and HealthCheck.
	pingTimeout = 5 * time.Second

	// Used when the configuration leaves batching unset.
	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second

	// serviceName is the value of the service tag on every point.
	serviceName = "itemstore"
)

// Tag keys attached to every point by Connect.
const (
	TagService = "service"
	TagDialect = "dialect"
)

// Client records statement metrics for one itemstore database.
//
// Every point carries the service tag and whatever source tags were passed
// to Connect (the SQL dialect, usually), so several itemstore instances can
// share a bucket. Writes go through the batching, non-blocking write API.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client influxdb2.Client
	writer api.WriteAPI

	mu      sync.RWMutex
	open    bool
	onError func(err error)
}

// Connect pings the server and returns a client writing to cfg.Bucket.
//
// tags become default tags of every point, next to service=itemstore.
// Returns ErrDisabled when cfg.Enabled is false.
func Connect(ctx context.Context, cfg config.InfluxDBConfig, tags map[string]string) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, clientOptions(cfg, tags))

	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		client: client,
		writer: client.WriteAPI(cfg.Org, cfg.Bucket),
		open:   true,
	}
	// Errors() must be obtained before the first write
	go c.reportErrors(c.writer.Errors())

	return c, nil
}

// clientOptions builds batching and default tags from the configuration.
func clientOptions(cfg config.InfluxDBConfig, tags map[string]string) *influxdb2.Options {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	flush := time.Duration(cfg.FlushInterval) * time.Second
	if flush <= 0 {
		flush = defaultFlushInterval
	}

	// #nosec G115 -- both values are positive here
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(flush.Milliseconds()))

	opts.AddDefaultTag(TagService, serviceName)

	// Sorted so the option set is deterministic
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if tags[k] != "" {
			opts.AddDefaultTag(k, tags[k])
		}
	}
	return opts
}

// ping reports whether the server answers and is ready.
func ping(ctx context.Context, client influxdb2.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ok, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("ping: server not ready")
	}
	return nil
}

// reportErrors forwards asynchronous write failures to the SetOnError
// callback until the write API is closed.
func (c *Client) reportErrors(errs <-chan error) {
	for err := range errs {
		c.mu.RLock()
		fn := c.onError
		c.mu.RUnlock()

		if fn != nil {
			fn(err)
		}
	}
}

// Close flushes queued points and releases the client. Safe on nil.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	c.mu.Unlock()

	if wasOpen {
		c.writer.Flush()
		c.client.Close()
	}
	return nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if err := ping(ctx, c.client); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// IsConnected reports whether Connect succeeded and Close has not been called.
// It does not contact the server; use HealthCheck for that.
func (c *Client) IsConnected() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// SetOnError sets the callback for failed background writes.
func (c *Client) SetOnError(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}
