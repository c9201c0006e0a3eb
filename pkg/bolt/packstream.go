package bolt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PackStream is the binary serialization format used by Bolt. The encoder
// and decoder here cover the value types a client sends and receives:
// null, booleans, integers, floats, strings, lists, maps, and (decode only)
// generic structures such as nodes and relationships.

// Structure is a decoded PackStream structure that is not a message, e.g. a
// Node (0x4E) or Relationship (0x52) inside a RECORD. Fields are decoded
// positionally; interpretation is left to the caller.
type Structure struct {
	Tag    byte
	Fields []any
}

func encodeMap(m map[string]any) []byte {
	if len(m) == 0 {
		return []byte{0xA0}
	}

	var buf []byte
	size := len(m)
	if size < 16 {
		buf = append(buf, byte(0xA0+size))
	} else if size < 256 {
		buf = append(buf, 0xD8, byte(size))
	} else {
		buf = append(buf, 0xD9, byte(size>>8), byte(size))
	}

	for k, v := range m {
		buf = append(buf, encodeString(k)...)
		buf = append(buf, encodeValue(v)...)
	}

	return buf
}

func encodeList(items []any) []byte {
	if len(items) == 0 {
		return []byte{0x90}
	}

	var buf []byte
	size := len(items)
	if size < 16 {
		buf = append(buf, byte(0x90+size))
	} else if size < 256 {
		buf = append(buf, 0xD4, byte(size))
	} else {
		buf = append(buf, 0xD5, byte(size>>8), byte(size))
	}

	for _, item := range items {
		buf = append(buf, encodeValue(item)...)
	}

	return buf
}

func encodeString(s string) []byte {
	length := len(s)
	var buf []byte

	if length < 16 {
		buf = append(buf, byte(0x80+length))
	} else if length < 256 {
		buf = append(buf, 0xD0, byte(length))
	} else if length < 65536 {
		buf = append(buf, 0xD1, byte(length>>8), byte(length))
	} else {
		buf = append(buf, 0xD2, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	}

	buf = append(buf, []byte(s)...)
	return buf
}

func encodeInt(val int64) []byte {
	if val >= -16 && val <= 127 {
		return []byte{byte(val)}
	}
	if val >= -128 && val < -16 {
		return []byte{0xC8, byte(val)}
	}
	if val >= -32768 && val <= 32767 {
		return []byte{0xC9, byte(val >> 8), byte(val)}
	}
	if val >= -2147483648 && val <= 2147483647 {
		return []byte{0xCA, byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val)}
	}
	return []byte{0xCB, byte(val >> 56), byte(val >> 48), byte(val >> 40), byte(val >> 32),
		byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val)}
}

// encodeValue encodes any driver-representable value. Unknown types encode
// as null rather than failing mid-message.
func encodeValue(v any) []byte {
	switch val := v.(type) {
	case nil:
		return []byte{0xC0}
	case bool:
		if val {
			return []byte{0xC3}
		}
		return []byte{0xC2}
	case int:
		return encodeInt(int64(val))
	case int8:
		return encodeInt(int64(val))
	case int16:
		return encodeInt(int64(val))
	case int32:
		return encodeInt(int64(val))
	case int64:
		return encodeInt(val)
	case uint:
		return encodeInt(int64(val))
	case uint8:
		return encodeInt(int64(val))
	case uint16:
		return encodeInt(int64(val))
	case uint32:
		return encodeInt(int64(val))
	case uint64:
		return encodeInt(int64(val))
	case float32:
		buf := make([]byte, 9)
		buf[0] = 0xC1
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(float64(val)))
		return buf
	case float64:
		buf := make([]byte, 9)
		buf[0] = 0xC1
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(val))
		return buf
	case string:
		return encodeString(val)
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return encodeList(items)
	case []int:
		items := make([]any, len(val))
		for i, n := range val {
			items[i] = int64(n)
		}
		return encodeList(items)
	case []int64:
		items := make([]any, len(val))
		for i, n := range val {
			items[i] = n
		}
		return encodeList(items)
	case []float64:
		items := make([]any, len(val))
		for i, n := range val {
			items[i] = n
		}
		return encodeList(items)
	case []any:
		return encodeList(val)
	case map[string]any:
		return encodeMap(val)
	default:
		return []byte{0xC0}
	}
}

func decodeString(data []byte, offset int) (string, int, error) {
	if offset >= len(data) {
		return "", 0, fmt.Errorf("offset out of bounds")
	}

	startOffset := offset
	marker := data[offset]
	offset++

	var length int

	switch {
	case marker >= 0x80 && marker <= 0x8F:
		length = int(marker - 0x80)
	case marker == 0xD0: // STRING8
		if offset >= len(data) {
			return "", 0, fmt.Errorf("incomplete STRING8")
		}
		length = int(data[offset])
		offset++
	case marker == 0xD1: // STRING16
		if offset+1 >= len(data) {
			return "", 0, fmt.Errorf("incomplete STRING16")
		}
		length = int(data[offset])<<8 | int(data[offset+1])
		offset += 2
	case marker == 0xD2: // STRING32
		if offset+3 >= len(data) {
			return "", 0, fmt.Errorf("incomplete STRING32")
		}
		length = int(data[offset])<<24 | int(data[offset+1])<<16 | int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4
	default:
		return "", 0, fmt.Errorf("not a string marker: 0x%02X", marker)
	}

	if offset+length > len(data) {
		return "", 0, fmt.Errorf("string data out of bounds")
	}

	str := string(data[offset : offset+length])
	return str, (offset + length) - startOffset, nil
}

func decodeMap(data []byte, offset int) (map[string]any, int, error) {
	if offset >= len(data) {
		return nil, 0, fmt.Errorf("offset out of bounds")
	}

	marker := data[offset]
	startOffset := offset
	offset++

	var size int

	switch {
	case marker >= 0xA0 && marker <= 0xAF:
		size = int(marker - 0xA0)
	case marker == 0xD8: // MAP8
		if offset >= len(data) {
			return nil, 0, fmt.Errorf("incomplete MAP8")
		}
		size = int(data[offset])
		offset++
	case marker == 0xD9: // MAP16
		if offset+1 >= len(data) {
			return nil, 0, fmt.Errorf("incomplete MAP16")
		}
		size = int(data[offset])<<8 | int(data[offset+1])
		offset += 2
	default:
		return nil, 0, fmt.Errorf("not a map marker: 0x%02X", marker)
	}

	result := make(map[string]any, size)

	for i := 0; i < size; i++ {
		key, n, err := decodeString(data, offset)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode map key: %w", err)
		}
		offset += n

		value, n, err := decodeValue(data, offset)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode map value for key %s: %w", key, err)
		}
		offset += n

		result[key] = value
	}

	return result, offset - startOffset, nil
}

func decodeList(data []byte, offset int) ([]any, int, error) {
	if offset >= len(data) {
		return nil, 0, fmt.Errorf("offset out of bounds")
	}

	marker := data[offset]
	startOffset := offset
	offset++

	var size int

	switch {
	case marker >= 0x90 && marker <= 0x9F:
		size = int(marker - 0x90)
	case marker == 0xD4: // LIST8
		if offset >= len(data) {
			return nil, 0, fmt.Errorf("incomplete LIST8")
		}
		size = int(data[offset])
		offset++
	case marker == 0xD5: // LIST16
		if offset+1 >= len(data) {
			return nil, 0, fmt.Errorf("incomplete LIST16")
		}
		size = int(data[offset])<<8 | int(data[offset+1])
		offset += 2
	case marker == 0xD6: // LIST32
		if offset+3 >= len(data) {
			return nil, 0, fmt.Errorf("incomplete LIST32")
		}
		size = int(data[offset])<<24 | int(data[offset+1])<<16 | int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4
	default:
		return nil, 0, fmt.Errorf("not a list marker: 0x%02X", marker)
	}

	result := make([]any, size)

	for i := 0; i < size; i++ {
		value, n, err := decodeValue(data, offset)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode list item %d: %w", i, err)
		}
		result[i] = value
		offset += n
	}

	return result, offset - startOffset, nil
}

// decodeStructure decodes a non-message structure (node, relationship, path,
// temporal value) into a generic Structure. The fields must be consumed even
// when the structure itself is opaque to the caller, otherwise the rest of
// the message cannot be decoded.
func decodeStructure(data []byte, offset int) (*Structure, int, error) {
	if offset+1 >= len(data) {
		return nil, 0, fmt.Errorf("incomplete structure")
	}

	marker := data[offset]
	if marker < 0xB0 || marker > 0xBF {
		return nil, 0, fmt.Errorf("not a structure marker: 0x%02X", marker)
	}

	startOffset := offset
	size := int(marker - 0xB0)
	tag := data[offset+1]
	offset += 2

	fields := make([]any, size)
	for i := 0; i < size; i++ {
		value, n, err := decodeValue(data, offset)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode structure field %d: %w", i, err)
		}
		fields[i] = value
		offset += n
	}

	return &Structure{Tag: tag, Fields: fields}, offset - startOffset, nil
}

func decodeValue(data []byte, offset int) (any, int, error) {
	if offset >= len(data) {
		return nil, 0, fmt.Errorf("offset out of bounds")
	}

	marker := data[offset]

	switch {
	case marker == 0xC0:
		return nil, 1, nil
	case marker == 0xC2:
		return false, 1, nil
	case marker == 0xC3:
		return true, 1, nil
	case marker <= 0x7F: // tiny positive int
		return int64(marker), 1, nil
	case marker >= 0xF0: // tiny negative int (-16..-1)
		return int64(int8(marker)), 1, nil
	case marker == 0xC8: // INT8
		if offset+1 >= len(data) {
			return nil, 0, fmt.Errorf("incomplete INT8")
		}
		return int64(int8(data[offset+1])), 2, nil
	case marker == 0xC9: // INT16
		if offset+2 >= len(data) {
			return nil, 0, fmt.Errorf("incomplete INT16")
		}
		val := int16(data[offset+1])<<8 | int16(data[offset+2])
		return int64(val), 3, nil
	case marker == 0xCA: // INT32
		if offset+4 >= len(data) {
			return nil, 0, fmt.Errorf("incomplete INT32")
		}
		val := int32(data[offset+1])<<24 | int32(data[offset+2])<<16 | int32(data[offset+3])<<8 | int32(data[offset+4])
		return int64(val), 5, nil
	case marker == 0xCB: // INT64
		if offset+8 >= len(data) {
			return nil, 0, fmt.Errorf("incomplete INT64")
		}
		val := int64(binary.BigEndian.Uint64(data[offset+1 : offset+9]))
		return val, 9, nil
	case marker == 0xC1: // FLOAT64
		if offset+8 >= len(data) {
			return nil, 0, fmt.Errorf("incomplete FLOAT64")
		}
		bits := binary.BigEndian.Uint64(data[offset+1 : offset+9])
		return math.Float64frombits(bits), 9, nil
	case marker >= 0x80 && marker <= 0x8F || marker == 0xD0 || marker == 0xD1 || marker == 0xD2:
		return decodeString(data, offset)
	case marker >= 0x90 && marker <= 0x9F || marker == 0xD4 || marker == 0xD5 || marker == 0xD6:
		return decodeList(data, offset)
	case marker >= 0xA0 && marker <= 0xAF || marker == 0xD8 || marker == 0xD9:
		return decodeMap(data, offset)
	case marker >= 0xB0 && marker <= 0xBF:
		return decodeStructure(data, offset)
	default:
		return nil, 0, fmt.Errorf("unknown marker: 0x%02X", marker)
	}
}
