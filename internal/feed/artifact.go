package feed

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/dirtyfeed/internal/artifacts"
	"github.com/angelmondragon/dirtyfeed/internal/generator"
	"github.com/angelmondragon/dirtyfeed/pkg/bigquery"
	"github.com/angelmondragon/dirtyfeed/pkg/enums"
)

// Artifact is one object written to the sink during a job run.
type Artifact struct {
	Name    string
	Job     string
	Key     string
	Format  enums.ArtifactFormat
	Merge   bool
	Records int

	encode     func(existing []byte) ([]byte, error)
	mirrorTo   string
	mirrorRows []bigquery.Row
}

// JSONArtifact encodes records as a JSON array. With merge set the array is
// appended to whatever the sink already holds under key.
func JSONArtifact[T any](name, key string, records []T, merge bool) Artifact {
	return Artifact{
		Name:    name,
		Key:     key,
		Format:  enums.ArtifactFormatJSON,
		Merge:   merge,
		Records: len(records),
		encode: func(existing []byte) ([]byte, error) {
			if existing == nil {
				return artifacts.EncodeJSON(records)
			}
			return artifacts.MergeJSON(existing, records)
		},
	}
}

// TransactionsCSVArtifact writes one row per transaction line.
func TransactionsCSVArtifact(name, key string, txs []generator.Transaction, appendRows bool) Artifact {
	rows := 0
	for _, tx := range txs {
		rows += len(tx.Products)
	}
	return csvArtifact(name, key, rows, appendRows, func() ([]byte, error) {
		return artifacts.EncodeTransactionsCSV(txs)
	})
}

// ProvidersCSVArtifact writes one row per provider.
func ProvidersCSVArtifact(name, key string, providers []generator.Provider, appendRows bool) Artifact {
	return csvArtifact(name, key, len(providers), appendRows, func() ([]byte, error) {
		return artifacts.EncodeProvidersCSV(providers)
	})
}

func csvArtifact(name, key string, rows int, appendRows bool, fresh func() ([]byte, error)) Artifact {
	return Artifact{
		Name:    name,
		Key:     key,
		Format:  enums.ArtifactFormatCSV,
		Merge:   appendRows,
		Records: rows,
		encode: func(existing []byte) ([]byte, error) {
			payload, err := fresh()
			if err != nil || existing == nil {
				return payload, err
			}
			return artifacts.AppendCSV(existing, payload)
		},
	}
}

// WithMirror streams rows into a warehouse table after a successful upload.
func (a Artifact) WithMirror(table string, rows []bigquery.Row) Artifact {
	a.mirrorTo = table
	a.mirrorRows = rows
	return a
}

// MirrorRows flattens records into warehouse rows keyed by their JSON field
// names. idField names the field used as the streaming insert id.
func MirrorRows[T any](records []T, idField string) ([]bigquery.Row, error) {
	rows := make([]bigquery.Row, 0, len(records))
	for i, record := range records {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("mirror row %d: %w", i, err)
		}
		row := bigquery.Row{}
		if err := json.Unmarshal(raw, &row.Values); err != nil {
			return nil, fmt.Errorf("mirror row %d: %w", i, err)
		}
		if id, ok := row.Values[idField].(string); ok {
			row.InsertID = id
		}
		rows = append(rows, row)
	}
	return rows, nil
}
