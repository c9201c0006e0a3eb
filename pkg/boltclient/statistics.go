package boltclient

// Statistics holds the server-side mutation counters of the most recently
// completed query, plus the synthetic "rows" counter with the number of data
// rows that query returned.
//
// Counter names follow the Bolt summary format: "nodes-created",
// "nodes-deleted", "relationships-created", "relationships-deleted",
// "properties-set", "labels-added", "labels-removed", "indexes-added",
// "indexes-removed", "constraints-added", "constraints-removed".
type Statistics map[string]any

// Int returns the counter as an int64, or 0 when the key is absent or the
// value is not integer-coercible.
func (s Statistics) Int(key string) int64 {
	switch v := s[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
