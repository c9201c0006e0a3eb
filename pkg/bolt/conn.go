package bolt

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"
)

// Conn is a single Bolt protocol connection.
//
// Each method performs one request/response exchange and blocks until the
// server answers or the configured timeout expires. A Conn is not safe for
// concurrent use; callers own serialization.
//
// Example:
//
//	conn, err := bolt.Dial(&bolt.DialConfig{Address: "localhost:7687"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	conn.Hello(map[string]any{"user_agent": "boltclient/0.1.0", "scheme": "none"})
//	conn.Run("RETURN 1 AS n", nil, nil)
//	batch, _ := conn.Pull()
type Conn interface {
	// Hello sends the HELLO message with the given extra map (user agent,
	// and, before Bolt 5.1, the authentication token).
	Hello(extra map[string]any) (*Response, error)

	// Logon sends the LOGON message carrying the authentication token.
	// Only valid on Bolt 5.1 and later.
	Logon(token map[string]any) (*Response, error)

	// Run submits a query with parameters and extra request metadata and
	// returns the run summary response.
	Run(query string, params, extra map[string]any) (*Response, error)

	// Pull requests the full result stream of the last Run. The returned
	// batch contains every RECORD response in server order followed by the
	// terminal summary response.
	Pull() ([]Response, error)

	// Begin, Commit and Rollback each perform one transaction-control
	// exchange and return the summary response.
	Begin(extra map[string]any) (*Response, error)
	Commit() (*Response, error)
	Rollback() (*Response, error)

	// Goodbye notifies the server the connection is going away. The server
	// does not respond to GOODBYE.
	Goodbye() error

	// Version reports the protocol version negotiated during the handshake.
	Version() Version

	// Close closes the underlying transport.
	Close() error
}

// DialConfig holds transport and handshake settings for Dial.
type DialConfig struct {
	// Address is the host:port to connect to.
	Address string

	// TLS enables an encrypted transport. Peer certificates are always
	// verified; there is no insecure mode.
	TLS bool

	// ServerName overrides the TLS server name (defaults to the host part
	// of Address).
	ServerName string

	// Timeout bounds the dial and every subsequent read/write.
	Timeout time.Duration

	// Preferred, when non-zero, restricts the handshake proposal to a
	// single protocol version.
	Preferred Version

	// UserAgent is reported to the server in HELLO.
	UserAgent string

	// LogMessages prints every exchanged message to stdout (for debugging).
	LogMessages bool
}

// DefaultUserAgent identifies this driver to servers.
const DefaultUserAgent = "boltclient/0.1.0"

var magicPreamble = []byte{0x60, 0x60, 0xB0, 0x17}

// maxChunkSize is the largest payload a 2-byte chunk header can declare.
const maxChunkSize = 0xFFFF

// defaultProposals is the version list offered during the handshake, newest
// first. 4.3 is the floor: older servers lack the extra map on BEGIN/RUN.
var defaultProposals = []Version{
	{Major: 5, Minor: 4},
	{Major: 5, Minor: 1},
	{Major: 4, Minor: 4},
	{Major: 4, Minor: 3},
}

// wireConn implements Conn over a net.Conn.
type wireConn struct {
	conn    net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
	timeout time.Duration
	version Version
	log     bool

	// Reusable buffers to reduce allocations.
	headerBuf  [2]byte
	messageBuf []byte
}

// Dial connects to a Bolt server and performs the version handshake.
// The returned Conn is ready for HELLO.
func Dial(cfg *DialConfig) (Conn, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("bolt: missing address")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var (
		raw net.Conn
		err error
	)
	if cfg.TLS {
		serverName := cfg.ServerName
		if serverName == "" {
			serverName, _, err = net.SplitHostPort(cfg.Address)
			if err != nil {
				return nil, fmt.Errorf("bolt: invalid address %q: %w", cfg.Address, err)
			}
		}
		dialer := &net.Dialer{Timeout: timeout}
		raw, err = tls.DialWithDialer(dialer, "tcp", cfg.Address, &tls.Config{
			ServerName: serverName,
			MinVersion: tls.VersionTLS12,
		})
	} else {
		raw, err = net.DialTimeout("tcp", cfg.Address, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("bolt: dial %s: %w", cfg.Address, err)
	}

	// Disable Nagle's algorithm for lower latency on request-response
	// exchanges.
	if tcpConn, ok := raw.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}

	c := &wireConn{
		conn:       raw,
		reader:     bufio.NewReaderSize(raw, 8192),
		writer:     bufio.NewWriterSize(raw, 8192),
		timeout:    timeout,
		log:        cfg.LogMessages,
		messageBuf: make([]byte, 0, 4096),
	}

	if err := c.handshake(cfg.Preferred); err != nil {
		raw.Close()
		return nil, err
	}

	return c, nil
}

// handshake sends the magic preamble and version proposals and reads the
// server's selection.
func (c *wireConn) handshake(preferred Version) error {
	proposals := defaultProposals
	if !preferred.Zero() {
		proposals = []Version{preferred}
	}

	c.setDeadline()

	if _, err := c.writer.Write(magicPreamble); err != nil {
		return fmt.Errorf("bolt: failed to send magic: %w", err)
	}

	// Four 4-byte proposals, zero-padded when fewer versions are offered.
	for i := 0; i < 4; i++ {
		slot := [4]byte{}
		if i < len(proposals) {
			slot[2] = byte(proposals[i].Minor)
			slot[3] = byte(proposals[i].Major)
		}
		if _, err := c.writer.Write(slot[:]); err != nil {
			return fmt.Errorf("bolt: failed to send versions: %w", err)
		}
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("bolt: failed to flush handshake: %w", err)
	}

	var selected [4]byte
	if _, err := io.ReadFull(c.reader, selected[:]); err != nil {
		return fmt.Errorf("bolt: failed to read negotiated version: %w", err)
	}

	c.version = Version{Major: int(selected[3]), Minor: int(selected[2])}
	if c.version.Zero() {
		return fmt.Errorf("bolt: server supports none of the proposed versions")
	}

	if c.log {
		fmt.Printf("[bolt] negotiated protocol %s\n", c.version)
	}

	return nil
}

func (c *wireConn) Version() Version {
	return c.version
}

func (c *wireConn) Close() error {
	return c.conn.Close()
}

func (c *wireConn) Hello(extra map[string]any) (*Response, error) {
	return c.request(MsgHello, encodeMap(extra))
}

func (c *wireConn) Logon(token map[string]any) (*Response, error) {
	return c.request(MsgLogon, encodeMap(token))
}

func (c *wireConn) Run(query string, params, extra map[string]any) (*Response, error) {
	var body []byte
	body = append(body, encodeString(query)...)
	body = append(body, encodeMap(params)...)
	body = append(body, encodeMap(extra)...)
	return c.requestN(MsgRun, 3, body)
}

func (c *wireConn) Pull() ([]Response, error) {
	// n: -1 requests the entire remaining stream.
	if err := c.send(MsgPull, 1, encodeMap(map[string]any{"n": int64(-1)})); err != nil {
		return nil, err
	}

	var batch []Response
	for {
		resp, err := c.readResponse()
		if err != nil {
			return nil, err
		}
		batch = append(batch, *resp)
		if resp.Sig != SignatureRecord {
			return batch, nil
		}
	}
}

func (c *wireConn) Begin(extra map[string]any) (*Response, error) {
	return c.request(MsgBegin, encodeMap(extra))
}

func (c *wireConn) Commit() (*Response, error) {
	return c.requestN(MsgCommit, 0, nil)
}

func (c *wireConn) Rollback() (*Response, error) {
	return c.requestN(MsgRollback, 0, nil)
}

func (c *wireConn) Goodbye() error {
	return c.send(MsgGoodbye, 0, nil)
}

// request sends a single-field message and reads one response.
func (c *wireConn) request(msgType byte, body []byte) (*Response, error) {
	return c.requestN(msgType, 1, body)
}

func (c *wireConn) requestN(msgType byte, fields int, body []byte) (*Response, error) {
	if err := c.send(msgType, fields, body); err != nil {
		return nil, err
	}
	return c.readResponse()
}

// send writes one chunked message: tiny-struct marker, signature, encoded
// fields, zero-size terminator.
func (c *wireConn) send(msgType byte, fields int, body []byte) error {
	c.setDeadline()

	msg := make([]byte, 0, 2+len(body))
	msg = append(msg, byte(0xB0+fields), msgType)
	msg = append(msg, body...)

	if c.log {
		fmt.Printf("[bolt] C: 0x%02X (%d bytes)\n", msgType, len(msg))
	}

	// Messages longer than a chunk header can declare are split across
	// multiple chunks; the reader reassembles them.
	for len(msg) > 0 {
		size := len(msg)
		if size > maxChunkSize {
			size = maxChunkSize
		}
		c.writer.WriteByte(byte(size >> 8))
		c.writer.WriteByte(byte(size))
		c.writer.Write(msg[:size])
		msg = msg[size:]
	}

	// Zero-size chunk terminates the message.
	c.writer.WriteByte(0)
	c.writer.WriteByte(0)

	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("bolt: failed to send 0x%02X: %w", msgType, err)
	}
	return nil
}

// readResponse reads one complete message off the wire and decodes it.
// Messages can span multiple chunks; chunks are accumulated until the
// zero-size terminator.
func (c *wireConn) readResponse() (*Response, error) {
	c.setDeadline()
	c.messageBuf = c.messageBuf[:0]

	for {
		if _, err := io.ReadFull(c.reader, c.headerBuf[:]); err != nil {
			return nil, fmt.Errorf("bolt: failed to read chunk header: %w", err)
		}

		size := int(c.headerBuf[0])<<8 | int(c.headerBuf[1])
		if size == 0 {
			if len(c.messageBuf) == 0 {
				// NOOP chunk (keep-alive); wait for a real message.
				continue
			}
			break
		}

		oldLen := len(c.messageBuf)
		newLen := oldLen + size
		if cap(c.messageBuf) < newLen {
			newCap := cap(c.messageBuf) * 2
			if newCap < newLen {
				newCap = newLen
			}
			newBuf := make([]byte, newLen, newCap)
			copy(newBuf, c.messageBuf)
			c.messageBuf = newBuf
		} else {
			c.messageBuf = c.messageBuf[:newLen]
		}

		if _, err := io.ReadFull(c.reader, c.messageBuf[oldLen:newLen]); err != nil {
			return nil, fmt.Errorf("bolt: failed to read chunk data: %w", err)
		}
	}

	return parseResponse(c.messageBuf, c.log)
}

// parseResponse decodes a complete message into a Response.
func parseResponse(msg []byte, logMessages bool) (*Response, error) {
	if len(msg) < 2 {
		return nil, fmt.Errorf("bolt: message too short: %d bytes", len(msg))
	}

	marker := msg[0]
	if marker < 0xB0 || marker > 0xBF {
		return nil, fmt.Errorf("bolt: unexpected message marker: 0x%02X", marker)
	}

	sig := Signature(msg[1])
	data := msg[2:]

	if logMessages {
		fmt.Printf("[bolt] S: %s (%d bytes)\n", sig, len(msg))
	}

	switch sig {
	case SignatureRecord:
		// RECORD carries one field: the list of values.
		values, _, err := decodeList(data, 0)
		if err != nil {
			return nil, fmt.Errorf("bolt: failed to decode record: %w", err)
		}
		return &Response{Sig: sig, Values: values}, nil
	case SignatureSuccess, SignatureFailure, SignatureIgnored:
		metadata := map[string]any{}
		if len(data) > 0 {
			m, _, err := decodeMap(data, 0)
			if err != nil {
				return nil, fmt.Errorf("bolt: failed to decode %s metadata: %w", sig, err)
			}
			metadata = m
		}
		return &Response{Sig: sig, Metadata: metadata}, nil
	default:
		return nil, fmt.Errorf("bolt: unexpected response signature: %s", sig)
	}
}

func (c *wireConn) setDeadline() {
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
}
