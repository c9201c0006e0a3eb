// Package boltclient is a minimal client for Bolt-speaking graph databases.
//
// A Client wraps a single lazily-established Bolt connection and exposes a
// small query/transaction surface on top of it: parameterized queries with
// tabular results, explicit transaction control, and per-query execution
// statistics.
//
// Failure never propagates to the caller as an error value or a panic.
// Queries return empty results and transaction calls return false; the
// failure itself is delivered to the configured error hook, or written to
// stderr (message and code) when no hook is set.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	client := boltclient.New(cfg)
//	defer client.Close()
//
//	rows := client.Query("MATCH (n:Person) RETURN n.name AS name", nil, nil)
//	for _, row := range rows {
//		fmt.Println(row["name"])
//	}
//
//	client.Query("CREATE (:Person {name: $name})",
//		map[string]any{"name": "Nora"}, nil)
//	fmt.Println(client.Statistic("nodes-created")) // 1
//
// Thread Safety:
//
//	All methods serialize on an internal mutex, so a Client may be shared
//	across goroutines. The protocol itself allows one outstanding exchange
//	at a time; concurrent callers simply queue.
package boltclient

import (
	"fmt"
	"os"
	"sync"

	"github.com/orneryd/boltclient/pkg/bolt"
	"github.com/orneryd/boltclient/pkg/config"
)

// LogFunc observes completed work: every successful query (with the
// server-reported elapsed milliseconds and its statistics) and every
// successful transaction-control call (with its fixed marker string).
type LogFunc func(query string, params map[string]any, elapsed int64, stats Statistics)

// ErrorFunc observes failures. When set, it replaces the default stderr
// reporter entirely.
type ErrorFunc func(err error)

// Client is the public query/transaction surface over one Bolt connection.
type Client struct {
	cfg  *config.Config
	dial func(*bolt.DialConfig) (bolt.Conn, error)

	mu      sync.Mutex
	conn    bolt.Conn
	started bool
	connErr error
	stats   Statistics

	logHook LogFunc
	errHook ErrorFunc
}

// New creates a Client for the given configuration. No connection is made
// until the first operation.
func New(cfg *config.Config) *Client {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Client{
		cfg:   cfg,
		dial:  bolt.Dial,
		stats: Statistics{},
	}
}

// SetLogHook installs the log hook. Pass nil to remove it.
func (c *Client) SetLogHook(hook LogFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logHook = hook
}

// SetErrorHook installs the error hook. Pass nil to restore the default
// stderr reporter.
func (c *Client) SetErrorHook(hook ErrorFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errHook = hook
}

// Query executes a parameterized query and returns its rows in server order.
// Field order within a row follows the server's field list. On any failure
// the error is reported through the error path and an empty slice is
// returned.
//
// The extra map carries request metadata understood by the server (result
// limits, timeouts, access mode); pass nil when none is needed.
func (c *Client) Query(query string, params, extra map[string]any) []Row {
	res, err := c.execute(query, params, extra)
	if err != nil {
		c.report(err)
		return []Row{}
	}
	return res.rows
}

// QueryValue executes a query and returns the first field of the first row,
// or nil when the query produces no rows (or fails).
func (c *Client) QueryValue(query string, params, extra map[string]any) any {
	res, err := c.execute(query, params, extra)
	if err != nil {
		c.report(err)
		return nil
	}
	if len(res.rows) == 0 || len(res.fields) == 0 {
		return nil
	}
	return res.rows[0][res.fields[0]]
}

// QueryColumn executes a query and returns the column of its first field,
// one entry per row. The field is selected once, from the field list of the
// run summary, not re-derived per row.
func (c *Client) QueryColumn(query string, params, extra map[string]any) []any {
	res, err := c.execute(query, params, extra)
	if err != nil {
		c.report(err)
		return []any{}
	}
	if len(res.rows) == 0 || len(res.fields) == 0 {
		return []any{}
	}

	field := res.fields[0]
	column := make([]any, 0, len(res.rows))
	for _, row := range res.rows {
		column = append(column, row[field])
	}
	return column
}

// Statistic returns a counter from the statistics of the most recently
// completed query: the server-side mutation counters plus the synthetic
// "rows" counter. Absent or non-integer counters read as 0. Transaction
// control calls do not touch statistics.
func (c *Client) Statistic(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.Int(key)
}

// execute runs the full query exchange under the client lock and, on
// success, replaces the cached statistics and notifies the log hook. The
// hook is snapshotted under the lock and invoked after release, so a hook
// may call back into the client.
func (c *Client) execute(query string, params, extra map[string]any) (*queryResult, error) {
	c.mu.Lock()

	conn, err := c.connection()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	res, err := runQuery(conn, query, params, extra)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.stats = res.stats
	hook := c.logHook
	c.mu.Unlock()

	if hook != nil {
		hook(query, params, res.elapsed, res.stats)
	}
	return res, nil
}

// report routes a failure to the error hook, or to the default stderr
// reporter when no hook is installed. Execution always continues.
func (c *Client) report(err error) {
	c.mu.Lock()
	hook := c.errHook
	c.mu.Unlock()

	if hook != nil {
		hook(err)
		return
	}
	fmt.Fprintf(os.Stderr, "boltclient: %v\n", err)
}
