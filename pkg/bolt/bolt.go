// Package bolt implements the client side of the Neo4j Bolt protocol.
//
// This package speaks Bolt at the message level: it dials the transport,
// performs the version handshake, and exchanges PackStream-encoded request
// and response messages with a Bolt server. It deliberately knows nothing
// about sessions, transactions-as-state, or result shaping; that lives in
// pkg/boltclient, which drives a Conn one request/response exchange at a
// time.
//
// Protocol Flow:
//
//  1. **Handshake**:
//     - Client sends magic number (0x6060B017)
//     - Client sends four supported version proposals
//     - Server responds with the selected version
//
//  2. **Authentication**:
//     - Client sends HELLO (with credentials before Bolt 5.1)
//     - From Bolt 5.1 on, credentials travel in a separate LOGON
//
//  3. **Query Execution**:
//     - Client sends RUN with query text and parameters
//     - Server responds with SUCCESS (field names, t_first)
//     - Client sends PULL to stream results
//     - Server sends RECORD messages + a final SUCCESS with stats/t_last
//
//  4. **Transaction Management**:
//     - BEGIN / COMMIT / ROLLBACK, each answered by a single summary message
//
// Example Usage:
//
//	conn, err := bolt.Dial(&bolt.DialConfig{
//		Address: "localhost:7687",
//		Timeout: 5 * time.Second,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	resp, _ := conn.Hello(map[string]any{
//		"user_agent": "boltclient/0.1.0",
//		"scheme":     "none",
//	})
//	if resp.Sig != bolt.SignatureSuccess {
//		log.Fatalf("hello rejected: %v", resp.Metadata)
//	}
package bolt

import "fmt"

// Request message types (PackStream structure signatures).
const (
	MsgHello    byte = 0x01
	MsgGoodbye  byte = 0x02
	MsgReset    byte = 0x0F
	MsgRun      byte = 0x10
	MsgBegin    byte = 0x11
	MsgCommit   byte = 0x12
	MsgRollback byte = 0x13
	MsgDiscard  byte = 0x2F
	MsgPull     byte = 0x3F
	MsgLogon    byte = 0x6A
)

// Signature tags a server response with its outcome.
type Signature byte

// Response signatures.
const (
	SignatureSuccess Signature = 0x70
	SignatureRecord  Signature = 0x71
	SignatureIgnored Signature = 0x7E
	SignatureFailure Signature = 0x7F
)

// String returns the protocol name of the signature.
func (s Signature) String() string {
	switch s {
	case SignatureSuccess:
		return "SUCCESS"
	case SignatureRecord:
		return "RECORD"
	case SignatureIgnored:
		return "IGNORED"
	case SignatureFailure:
		return "FAILURE"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", byte(s))
	}
}

// Response is a single decoded server message.
//
// Summary messages (SUCCESS, FAILURE, IGNORED) carry their content in
// Metadata. RECORD messages carry their field values, positionally ordered,
// in Values.
type Response struct {
	Sig      Signature
	Metadata map[string]any
	Values   []any
}

// Version is a negotiated Bolt protocol version.
type Version struct {
	Major int
	Minor int
}

// Zero reports whether no version has been negotiated.
func (v Version) Zero() bool {
	return v.Major == 0 && v.Minor == 0
}

// Less reports whether v is older than major.minor.
func (v Version) Less(major, minor int) bool {
	if v.Major != major {
		return v.Major < major
	}
	return v.Minor < minor
}

// String formats the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseVersion parses a "major.minor" version string, e.g. "5.4".
func ParseVersion(s string) (Version, error) {
	var v Version
	if _, err := fmt.Sscanf(s, "%d.%d", &v.Major, &v.Minor); err != nil {
		return Version{}, fmt.Errorf("invalid protocol version %q: %w", s, err)
	}
	if v.Major <= 0 || v.Minor < 0 {
		return Version{}, fmt.Errorf("invalid protocol version %q", s)
	}
	return v, nil
}
