package bolt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeValues(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any // expected decoded form (integers widen to int64)
	}{
		{"nil", nil, nil},
		{"true", true, true},
		{"false", false, false},
		{"tiny int", 7, int64(7)},
		{"tiny negative", -16, int64(-16)},
		{"int8", -100, int64(-100)},
		{"int16", 30000, int64(30000)},
		{"int32", 1 << 20, int64(1 << 20)},
		{"int64", int64(1) << 40, int64(1) << 40},
		{"float", 3.25, 3.25},
		{"string", "hello", "hello"},
		{"empty string", "", ""},
		{"list", []any{int64(1), "two", true}, []any{int64(1), "two", true}},
		{"map", map[string]any{"n": int64(123)}, map[string]any{"n": int64(123)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := encodeValue(tt.value)
			decoded, n, err := decodeValue(encoded, 0)
			require.NoError(t, err)
			assert.Equal(t, len(encoded), n, "should consume the whole encoding")
			assert.Equal(t, tt.want, decoded)
		})
	}
}

func TestEncodeStringSizes(t *testing.T) {
	// Marker selection at the size boundaries.
	tiny := encodeString("abc")
	assert.Equal(t, byte(0x83), tiny[0])

	medium := encodeString(string(make([]byte, 200)))
	assert.Equal(t, byte(0xD0), medium[0])

	large := encodeString(string(make([]byte, 70000)))
	assert.Equal(t, byte(0xD2), large[0])
}

func TestDecodeNestedMap(t *testing.T) {
	metadata := map[string]any{
		"stats": map[string]any{
			"nodes-created": int64(2),
			"labels-added":  int64(1),
		},
		"t_last": int64(3),
		"type":   "w",
	}

	encoded := encodeMap(metadata)
	decoded, n, err := decodeMap(encoded, 0)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	assert.Equal(t, metadata, decoded)
}

func TestDecodeStructure(t *testing.T) {
	// A Node structure (0x4E) inside a record must be consumed completely
	// so trailing values still decode.
	var record []byte
	record = append(record, 0xB3, 0x4E)                  // struct, 3 fields, Node
	record = append(record, encodeInt(42)...)            // id
	record = append(record, encodeList([]any{"Person"})...) // labels
	record = append(record, encodeMap(map[string]any{"name": "Nora"})...)

	payload := append(record, encodeString("after")...)

	value, n, err := decodeValue(payload, 0)
	require.NoError(t, err)

	node, ok := value.(*Structure)
	require.True(t, ok)
	assert.Equal(t, byte(0x4E), node.Tag)
	require.Len(t, node.Fields, 3)
	assert.Equal(t, int64(42), node.Fields[0])

	after, _, err := decodeValue(payload, n)
	require.NoError(t, err)
	assert.Equal(t, "after", after)
}

func TestDecodeErrors(t *testing.T) {
	_, _, err := decodeMap([]byte{0x90}, 0) // list marker is not a map
	assert.Error(t, err)

	_, _, err = decodeString([]byte{0xD0}, 0) // truncated STRING8
	assert.Error(t, err)

	_, _, err = decodeValue(nil, 0)
	assert.Error(t, err)
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("5.4")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 5, Minor: 4}, v)
	assert.False(t, v.Less(5, 1))
	assert.True(t, v.Less(6, 0))
	assert.True(t, Version{Major: 4, Minor: 4}.Less(5, 1))

	_, err = ParseVersion("bolt")
	assert.Error(t, err)
}

func TestSignatureString(t *testing.T) {
	assert.Equal(t, "SUCCESS", SignatureSuccess.String())
	assert.Equal(t, "FAILURE", SignatureFailure.String())
	assert.Equal(t, "IGNORED", SignatureIgnored.String())
	assert.Equal(t, "RECORD", SignatureRecord.String())
	assert.Contains(t, Signature(0x42).String(), "UNKNOWN")
}
