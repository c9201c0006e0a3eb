package boltclient

import (
	"github.com/orneryd/boltclient/pkg/bolt"
)

// connection returns the client's single Bolt connection, dialing and
// authenticating on first use. The outcome of that first attempt, success or
// failure, is cached for the lifetime of the client: a client that failed to
// connect stays failed, and a connection that later breaks is not rebuilt.
// Callers must hold c.mu.
func (c *Client) connection() (bolt.Conn, error) {
	if c.started {
		return c.conn, c.connErr
	}
	c.started = true

	dialCfg := &bolt.DialConfig{
		Address:    c.cfg.Address(),
		TLS:        c.cfg.Encrypted(),
		ServerName: c.cfg.Hostname(),
		Timeout:    c.cfg.ConnectTimeout,
		UserAgent:  bolt.DefaultUserAgent,
	}
	if c.cfg.Protocol != "" {
		version, err := bolt.ParseVersion(c.cfg.Protocol)
		if err != nil {
			c.connErr = &ConnectionError{Message: err.Error()}
			return nil, c.connErr
		}
		dialCfg.Preferred = version
	}

	conn, err := c.dial(dialCfg)
	if err != nil {
		c.connErr = &ConnectionError{Message: err.Error()}
		return nil, c.connErr
	}

	if err := c.authenticate(conn); err != nil {
		conn.Close()
		c.connErr = err
		return nil, c.connErr
	}

	c.conn = conn
	return c.conn, nil
}

// authenticate performs the post-handshake greeting. Before Bolt 5.1 the
// HELLO message carries the full authentication token; from 5.1 on HELLO
// only identifies the client and the token travels in a separate LOGON.
func (c *Client) authenticate(conn bolt.Conn) error {
	token := c.cfg.Auth.Token()
	hello := map[string]any{"user_agent": bolt.DefaultUserAgent}

	if conn.Version().Less(5, 1) {
		for k, v := range token {
			hello[k] = v
		}
		return validateGreeting(conn.Hello(hello))
	}

	if err := validateGreeting(conn.Hello(hello)); err != nil {
		return err
	}
	return validateGreeting(conn.Logon(token))
}

func validateGreeting(resp *bolt.Response, err error) error {
	if err != nil {
		return &ConnectionError{Message: err.Error()}
	}
	if resp.Sig != bolt.SignatureSuccess {
		return &ConnectionError{
			Code:    failureCode(resp.Metadata),
			Message: metadataText(resp.Metadata),
		}
	}
	return nil
}

// Close releases the connection, sending a best-effort GOODBYE first.
// Errors from the farewell are deliberately discarded: shutdown cleanup must
// never fail. After Close the client is unusable.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Goodbye()
		_ = c.conn.Close()
		c.conn = nil
	}
	c.started = true
	c.connErr = &ConnectionError{Message: "client closed"}
}
