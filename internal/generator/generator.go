// Package generator builds synthetic business records with controlled defects.
// Every operation returns a fresh batch; nothing is retained between calls.
package generator

import (
	"fmt"
	"time"

	"github.com/angelmondragon/dirtyfeed/pkg/catalog"
	"github.com/angelmondragon/dirtyfeed/pkg/enums"
	pkgerrors "github.com/angelmondragon/dirtyfeed/pkg/errors"
)

const (
	minAmount       = 20.00
	maxAmount       = 2000.00
	minLines        = 1
	maxLines        = 5
	maxQuantity     = 500
	maxQuantitySold = 50
	minReceiptDelay = 1
	maxReceiptDelay = 72
	noteWords       = 10
)

type Generator struct {
	catalog    *catalog.Catalog
	categories []string
	src        *Source
	rules      Rules
}

// NewGenerator fails with a configuration error when the catalog cannot supply products.
func NewGenerator(cat *catalog.Catalog, src *Source, rules Rules) (*Generator, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "catalog has no categories")
	}
	categories := cat.Categories()
	for _, category := range categories {
		if len(cat.Products(category)) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("catalog category %q has no products", category))
		}
	}
	if src == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "random source is required")
	}
	return &Generator{catalog: cat, categories: categories, src: src, rules: rules}, nil
}

// Source exposes the random source, mainly for logging its seed.
func (g *Generator) Source() *Source {
	return g.src
}

func (g *Generator) pickProduct() (category, product string) {
	category = g.categories[g.src.Pick(len(g.categories))]
	names := g.catalog.Products(category)
	return category, names[g.src.Pick(len(names))]
}

func (g *Generator) stamp(t time.Time) Timestamp {
	return Timestamp{t.Truncate(time.Second)}
}

func validateCount(count int) error {
	if count < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "count must be >= 0").
			WithDetails(map[string]any{"count": count})
	}
	return nil
}

// Customers generates count customers, each owning one transaction of 1..5 lines.
// Totals are exact sums of line amounts and never corrupted.
func (g *Generator) Customers(count int) (CustomerBatch, error) {
	if err := validateCount(count); err != nil {
		return CustomerBatch{}, err
	}

	batch := CustomerBatch{
		Customers:    make([]Customer, 0, count),
		Transactions: make([]Transaction, 0, count),
		Defects:      Defects{},
	}
	for i := 0; i < count; i++ {
		customerID := g.src.ID()

		lines := make([]ProductLine, g.src.IntRange(minLines, maxLines))
		amounts := make([]Amount, len(lines))
		for j := range lines {
			category, product := g.pickProduct()
			lines[j] = ProductLine{
				ProductName: product,
				Category:    category,
				Amount:      g.src.Amount(minAmount, maxAmount),
			}
			amounts[j] = lines[j].Amount
		}
		total := SumAmounts(amounts...)

		tx := Transaction{
			TransactionID:   g.src.ID(),
			CustomerID:      customerID,
			TransactionDate: g.stamp(g.src.TimeThisYear()),
			Products:        lines,
			TotalAmount:     total,
		}

		customer := Customer{
			CustomerID:    customerID,
			CustomerName:  g.src.Name(),
			CustomerEmail: apply(batch.Defects, g.rules.CustomerEmail, g.src, g.src.Email()),
			Region:        apply(batch.Defects, g.rules.CustomerRegion, g.src, g.src.Region()),
			TotalSpent:    total,
			Transaction:   tx,
		}

		batch.Customers = append(batch.Customers, customer)
		batch.Transactions = append(batch.Transactions, tx)
	}
	return batch, nil
}

// Inventory generates count warehouse records. Each field rule fires independently.
func (g *Generator) Inventory(count int) (InventoryBatch, error) {
	if err := validateCount(count); err != nil {
		return InventoryBatch{}, err
	}

	batch := InventoryBatch{
		Records: make([]InventoryRecord, 0, count),
		Defects: Defects{},
	}
	for i := 0; i < count; i++ {
		_, product := g.pickProduct()
		quantity := g.src.IntRange(0, maxQuantity)
		updated := g.src.TimeThisYear().Format(TimestampLayout)

		batch.Records = append(batch.Records, InventoryRecord{
			WarehouseID: g.src.ID(),
			ProductName: apply(batch.Defects, g.rules.ProductName, g.src, product),
			Quantity:    apply(batch.Defects, g.rules.Quantity, g.src, &quantity),
			LastUpdated: apply(batch.Defects, g.rules.LastUpdated, g.src, updated),
		})
	}
	return batch, nil
}

// AssociatedTransactions emits one sale per record with a positive quantity.
// Records with a missing or non-positive quantity produce nothing.
func (g *Generator) AssociatedTransactions(records []InventoryRecord) []InventoryTransaction {
	out := make([]InventoryTransaction, 0, len(records))
	for _, record := range records {
		if record.Quantity == nil || *record.Quantity <= 0 {
			continue
		}
		out = append(out, InventoryTransaction{
			TransactionID:   g.src.ID(),
			WarehouseID:     record.WarehouseID,
			ProductName:     record.ProductName,
			TransactionDate: g.stamp(g.src.TimeThisYear()),
			QuantitySold:    g.src.IntRange(1, min(*record.Quantity, maxQuantitySold)),
			Amount:          g.src.Amount(minAmount, maxAmount),
		})
	}
	return out
}

// SalesFromInventory adapts warehouse sales for receipt generation.
func SalesFromInventory(txs []InventoryTransaction) []Sale {
	sales := make([]Sale, 0, len(txs))
	for _, tx := range txs {
		sales = append(sales, Sale{
			TransactionID: tx.TransactionID,
			Date:          tx.TransactionDate,
			Amount:        tx.Amount,
		})
	}
	return sales
}

// SalesFromCustomers adapts customer transactions, settling the full total.
func SalesFromCustomers(txs []Transaction) []Sale {
	sales := make([]Sale, 0, len(txs))
	for _, tx := range txs {
		customerID := tx.CustomerID
		sales = append(sales, Sale{
			TransactionID: tx.TransactionID,
			CustomerID:    &customerID,
			Date:          tx.TransactionDate,
			Amount:        tx.TotalAmount,
		})
	}
	return sales
}

// Receipts settles each sale 1..72 hours after it happened.
func (g *Generator) Receipts(sales []Sale) ReceiptBatch {
	methods := enums.PaymentMethods()
	batch := ReceiptBatch{
		Receipts: make([]Receipt, 0, len(sales)),
		Defects:  Defects{},
	}
	for _, sale := range sales {
		delay := time.Duration(g.src.IntRange(minReceiptDelay, maxReceiptDelay)) * time.Hour

		receipt := Receipt{
			ReceiptID:     g.src.ID(),
			TransactionID: sale.TransactionID,
			CustomerID:    sale.CustomerID,
			ReceiptDate:   Timestamp{sale.Date.Add(delay)},
			PaymentMethod: methods[g.src.Pick(len(methods))].String(),
		}
		if g.src.Float64() < g.rules.NoteRate {
			note := g.src.Sentence(noteWords)
			receipt.Notes = &note
		}
		receipt.Amount = apply(batch.Defects, g.rules.ReceiptAmount, g.src, sale.Amount)

		batch.Receipts = append(batch.Receipts, receipt)
	}
	return batch
}

// Invoices bills every product line of every transaction at the current time.
func (g *Generator) Invoices(txs []Transaction) []Invoice {
	now := g.stamp(g.src.Now())
	out := make([]Invoice, 0, len(txs))
	for _, tx := range txs {
		for _, line := range tx.Products {
			out = append(out, Invoice{
				InvoiceID:     g.src.ID(),
				TransactionID: tx.TransactionID,
				CustomerID:    tx.CustomerID,
				ProductName:   line.ProductName,
				Amount:        line.Amount,
				InvoiceDate:   now,
			})
		}
	}
	return out
}

// Providers generates count suppliers, each tied to one catalog product.
func (g *Generator) Providers(count int) ([]Provider, error) {
	if err := validateCount(count); err != nil {
		return nil, err
	}
	out := make([]Provider, 0, count)
	for i := 0; i < count; i++ {
		_, product := g.pickProduct()
		out = append(out, Provider{
			ProviderID:   g.src.ID(),
			ProviderName: g.src.Company(),
			ProductName:  product,
			ContactEmail: g.src.Email(),
		})
	}
	return out, nil
}

// Products prices every catalog product once, in category order.
func (g *Generator) Products() []Product {
	out := make([]Product, 0, g.catalog.Size())
	for _, category := range g.categories {
		for _, name := range g.catalog.Products(category) {
			out = append(out, Product{
				Category: category,
				Name:     name,
				Price:    g.src.Amount(minAmount, maxAmount),
			})
		}
	}
	return out
}
