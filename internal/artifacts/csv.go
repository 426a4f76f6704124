package artifacts

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"

	"github.com/angelmondragon/dirtyfeed/internal/generator"
)

var (
	TransactionsHeader = []string{"transaction_id", "customer_id", "transaction_date", "product_name", "category", "amount", "total_amount"}
	ProvidersHeader    = []string{"provider_id", "provider_name", "product_name", "contact_email"}
)

// ErrHeaderMismatch is returned by AppendCSV when the stored header differs.
var ErrHeaderMismatch = errors.New("csv header mismatch")

// EncodeTransactionsCSV writes one row per (transaction, product line) pair.
func EncodeTransactionsCSV(txs []generator.Transaction) ([]byte, error) {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		for _, line := range tx.Products {
			rows = append(rows, []string{
				tx.TransactionID,
				tx.CustomerID,
				tx.TransactionDate.String(),
				line.ProductName,
				line.Category,
				line.Amount.String(),
				tx.TotalAmount.String(),
			})
		}
	}
	return writeCSV(TransactionsHeader, rows)
}

func EncodeProvidersCSV(providers []generator.Provider) ([]byte, error) {
	rows := make([][]string, 0, len(providers))
	for _, p := range providers {
		rows = append(rows, []string{p.ProviderID, p.ProviderName, p.ProductName, p.ContactEmail})
	}
	return writeCSV(ProvidersHeader, rows)
}

// AppendCSV keeps the rows of existing and adds the rows of fresh beneath a
// single header. Empty existing input returns fresh unchanged.
func AppendCSV(existing, fresh []byte) ([]byte, error) {
	if len(bytes.TrimSpace(existing)) == 0 {
		return fresh, nil
	}
	old, err := readCSV(existing)
	if err != nil {
		return nil, fmt.Errorf("reading existing csv: %w", err)
	}
	updates, err := readCSV(fresh)
	if err != nil {
		return nil, fmt.Errorf("reading fresh csv: %w", err)
	}
	if len(updates) == 0 {
		return existing, nil
	}
	if len(old) == 0 || !slices.Equal(old[0], updates[0]) {
		return nil, ErrHeaderMismatch
	}
	return writeCSV(updates[0], append(old[1:], updates[1:]...))
}

// CountCSV returns the number of data rows below the header.
func CountCSV(payload []byte) (int, error) {
	rows, err := readCSV(payload)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return len(rows) - 1, nil
}

func readCSV(payload []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
