package boltclient

import (
	"github.com/orneryd/boltclient/pkg/bolt"
)

// Row is one result row: field name to value, with field order defined by
// the run summary's field list.
type Row map[string]any

// queryResult is the shaped outcome of one RUN + PULL exchange.
type queryResult struct {
	fields  []string
	rows    []Row
	stats   Statistics
	elapsed int64 // t_first + t_last, server-reported milliseconds
}

// runQuery performs the full query exchange on conn: submit the statement,
// pull the record stream, validate every signature, and shape the records
// into rows.
//
// The record batch always ends with a summary response carrying the
// server-side counters ("stats") and the time-to-last-record metric; that
// terminator is split off before rows are built. A stream with no terminator
// at all is treated as an empty result.
func runQuery(conn bolt.Conn, query string, params, extra map[string]any) (*queryResult, error) {
	runResp, err := conn.Run(query, params, extra)
	if err != nil {
		return nil, &QueryError{Message: err.Error()}
	}
	if runResp.Sig != bolt.SignatureSuccess {
		return nil, &QueryError{
			Code:    failureCode(runResp.Metadata),
			Message: metadataText(runResp.Metadata),
		}
	}

	fields := fieldNames(runResp.Metadata["fields"])
	tFirst := intValue(runResp.Metadata["t_first"])

	batch, err := conn.Pull()
	if err != nil {
		return nil, &QueryError{Message: err.Error()}
	}

	records := make([]bolt.Response, 0, len(batch))
	for _, resp := range batch {
		if resp.Sig == bolt.SignatureIgnored || resp.Sig == bolt.SignatureFailure {
			// TODO: build this error from the failing PULL response; it
			// currently reports the RUN summary instead.
			return nil, &QueryError{
				Code:    failureCode(runResp.Metadata),
				Message: metadataText(runResp.Metadata),
			}
		}
		records = append(records, resp)
	}

	result := &queryResult{fields: fields, stats: Statistics{}}
	if len(records) == 0 {
		result.rows = []Row{}
		result.stats["rows"] = int64(0)
		result.elapsed = tFirst
		return result, nil
	}

	terminator := records[len(records)-1]
	records = records[:len(records)-1]

	if stats, ok := terminator.Metadata["stats"].(map[string]any); ok {
		for k, v := range stats {
			result.stats[k] = v
		}
	}
	result.stats["rows"] = int64(len(records))
	result.elapsed = tFirst + intValue(terminator.Metadata["t_last"])

	result.rows = make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(fields))
		n := len(fields)
		if len(rec.Values) < n {
			n = len(rec.Values)
		}
		for i := 0; i < n; i++ {
			row[fields[i]] = rec.Values[i]
		}
		result.rows = append(result.rows, row)
	}

	return result, nil
}

// fieldNames converts the run summary's "fields" entry into a string slice.
func fieldNames(v any) []string {
	switch fields := v.(type) {
	case []string:
		return fields
	case []any:
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			if s, ok := f.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}

func intValue(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
