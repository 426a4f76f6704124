// Package artifacts encodes generated batches into the blobs written to the sink.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const jsonIndent = "    "

// EncodeJSON renders records as an indented JSON array. A nil slice encodes as [].
func EncodeJSON[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	return json.MarshalIndent(records, "", jsonIndent)
}

// MergeJSON appends records to the JSON array held in existing. Empty input
// counts as an empty array; anything other than an array is an error.
func MergeJSON[T any](existing []byte, records []T) ([]byte, error) {
	merged, err := decodeArray(existing)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		merged = append(merged, raw)
	}
	return json.MarshalIndent(merged, "", jsonIndent)
}

// CountJSON returns the number of elements in a JSON array payload.
func CountJSON(payload []byte) (int, error) {
	items, err := decodeArray(payload)
	return len(items), err
}

func decodeArray(payload []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return []json.RawMessage{}, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("existing artifact is not a JSON array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decoding existing artifact: %w", err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}
