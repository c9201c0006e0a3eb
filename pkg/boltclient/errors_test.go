package boltclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	assert.Equal(t,
		"query failed: bad query [Neo.ClientError.Statement.SyntaxError]",
		(&QueryError{Code: "Neo.ClientError.Statement.SyntaxError", Message: "bad query"}).Error())

	assert.Equal(t,
		"connection failed: dial tcp: refused",
		(&ConnectionError{Message: "dial tcp: refused"}).Error())

	assert.Equal(t,
		"transaction failed: not in a transaction [Neo.ClientError.Transaction.TransactionNotFound]",
		(&TransactionError{Code: "Neo.ClientError.Transaction.TransactionNotFound", Message: "not in a transaction"}).Error())
}

func TestMetadataText(t *testing.T) {
	assert.Equal(t, "no details reported", metadataText(nil))
	assert.Equal(t, "no details reported", metadataText(map[string]any{}))

	// "message" leads, remaining keys follow sorted.
	text := metadataText(map[string]any{
		"t_first": int64(1),
		"message": "boom",
		"fields":  []any{"n"},
	})
	assert.Equal(t, "boom, fields: [n], t_first: 1", text)
}

func TestFailureCode(t *testing.T) {
	assert.Equal(t, "Neo.X", failureCode(map[string]any{"code": "Neo.X"}))
	assert.Equal(t, "", failureCode(map[string]any{"code": int64(1)}))
	assert.Equal(t, "", failureCode(nil))
}

func TestStatisticsInt(t *testing.T) {
	stats := Statistics{
		"nodes-created": int64(3),
		"rows":          7,
		"t_last":        2.0,
		"type":          "w",
	}
	assert.Equal(t, int64(3), stats.Int("nodes-created"))
	assert.Equal(t, int64(7), stats.Int("rows"))
	assert.Equal(t, int64(2), stats.Int("t_last"))
	assert.Equal(t, int64(0), stats.Int("type"), "non-numeric reads as zero")
	assert.Equal(t, int64(0), stats.Int("missing"))
}
