package boltclient

import (
	"fmt"
	"sort"
	"strings"
)

// The three failure kinds a client operation can produce. Each carries the
// server-reported failure code when one is available, so the default
// reporter (and any error hook) can surface both message and code.

// ConnectionError reports a transport or handshake failure. Once a client
// fails to connect it stays failed; there is no automatic reconnect.
type ConnectionError struct {
	Code    string
	Message string
}

func (e *ConnectionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("connection failed: %s [%s]", e.Message, e.Code)
	}
	return "connection failed: " + e.Message
}

// QueryError reports a non-success RUN or PULL outcome.
type QueryError struct {
	Code    string
	Message string
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("query failed: %s [%s]", e.Message, e.Code)
	}
	return "query failed: " + e.Message
}

// TransactionError reports a non-success BEGIN, COMMIT or ROLLBACK outcome.
type TransactionError struct {
	Code    string
	Message string
}

func (e *TransactionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("transaction failed: %s [%s]", e.Message, e.Code)
	}
	return "transaction failed: " + e.Message
}

// failureCode extracts the server failure code from response metadata.
func failureCode(metadata map[string]any) string {
	if code, ok := metadata["code"].(string); ok {
		return code
	}
	return ""
}

// metadataText renders response metadata as a single message string. The
// "message" entry leads when present; remaining keys follow in sorted order
// so the output is deterministic.
func metadataText(metadata map[string]any) string {
	if len(metadata) == 0 {
		return "no details reported"
	}

	var parts []string
	if msg, ok := metadata["message"].(string); ok {
		parts = append(parts, msg)
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		if k == "message" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, metadata[k]))
	}
	return strings.Join(parts, ", ")
}
