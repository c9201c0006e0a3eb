package boltclient

import (
	"github.com/orneryd/boltclient/pkg/bolt"
)

// Transaction markers passed to the log hook on success.
const (
	markerBegin    = "BEGIN TRANSACTION"
	markerCommit   = "COMMIT TRANSACTION"
	markerRollback = "ROLLBACK TRANSACTION"
)

// Begin opens an explicit transaction. The extra map carries transaction
// metadata understood by the server (timeout, access mode, bookmarks); pass
// nil when none is needed.
//
// Returns true iff the server acknowledged the request. Nested Begin calls
// are not rejected client-side; a server that refuses them reports the
// refusal, which surfaces through the error path like any other failure.
func (c *Client) Begin(extra map[string]any) bool {
	return c.txControl(markerBegin, func(conn bolt.Conn) (*bolt.Response, error) {
		return conn.Begin(extra)
	})
}

// Commit commits the open transaction. Returns true iff the server
// acknowledged the request.
func (c *Client) Commit() bool {
	return c.txControl(markerCommit, func(conn bolt.Conn) (*bolt.Response, error) {
		return conn.Commit()
	})
}

// Rollback rolls back the open transaction. Returns true iff the server
// acknowledged the request.
func (c *Client) Rollback() bool {
	return c.txControl(markerRollback, func(conn bolt.Conn) (*bolt.Response, error) {
		return conn.Rollback()
	})
}

// txControl performs one transaction-control exchange. Any failure is routed
// through the error path and collapses to a false return; it never propagates
// to the caller.
func (c *Client) txControl(marker string, call func(bolt.Conn) (*bolt.Response, error)) bool {
	c.mu.Lock()

	conn, err := c.connection()
	if err != nil {
		c.mu.Unlock()
		c.report(err)
		return false
	}

	resp, err := call(conn)
	if err != nil {
		c.mu.Unlock()
		c.report(&TransactionError{Message: err.Error()})
		return false
	}
	if resp.Sig != bolt.SignatureSuccess {
		c.mu.Unlock()
		c.report(&TransactionError{
			Code:    failureCode(resp.Metadata),
			Message: metadataText(resp.Metadata),
		})
		return false
	}

	// Snapshot hook and statistics, then invoke outside the lock so a hook
	// may call back into the client.
	hook := c.logHook
	stats := c.stats
	c.mu.Unlock()

	if hook != nil {
		hook(marker, nil, 0, stats)
	}
	return true
}
