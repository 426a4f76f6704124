package generator

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dirtyfeed/pkg/config"
)

const (
	FieldInventoryProductName = "inventory.product_name"
	FieldInventoryQuantity    = "inventory.quantity"
	FieldInventoryLastUpdated = "inventory.last_updated"
	FieldReceiptAmount        = "receipt.amount"
	FieldCustomerEmail        = "customer.customer_email"
	FieldCustomerRegion       = "customer.region"
)

// Rule degrades one field with a fixed probability.
type Rule[T any] struct {
	Field       string
	Probability float64
	Transform   func(src *Source, value T) T
}

// Apply draws once and transforms value when the draw falls under the rule's
// probability. Rules with a zero probability consume no draw.
func (r Rule[T]) Apply(src *Source, value T) (T, bool) {
	if r.Probability <= 0 || r.Transform == nil {
		return value, false
	}
	if src.Float64() >= r.Probability {
		return value, false
	}
	return r.Transform(src, value), true
}

// Defects counts fired rules by field.
type Defects map[string]int

// Total returns the number of defects across fields.
func (d Defects) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

func apply[T any](d Defects, r Rule[T], src *Source, value T) T {
	out, fired := r.Apply(src, value)
	if fired {
		d[r.Field]++
	}
	return out
}

// Rules is the full corruption table plus the receipt note rate, which shapes
// clean data rather than corrupting it.
type Rules struct {
	ProductName    Rule[string]
	Quantity       Rule[*int]
	LastUpdated    Rule[string]
	ReceiptAmount  Rule[Amount]
	CustomerEmail  Rule[string]
	CustomerRegion Rule[string]
	NoteRate       float64
}

// NewRules builds the table from configured probabilities.
func NewRules(cfg config.CorruptionConfig) Rules {
	return Rules{
		ProductName: Rule[string]{
			Field:       FieldInventoryProductName,
			Probability: cfg.ProductCase,
			Transform:   func(_ *Source, name string) string { return strings.ToLower(name) },
		},
		Quantity: Rule[*int]{
			Field:       FieldInventoryQuantity,
			Probability: cfg.Quantity,
			Transform:   corruptQuantity,
		},
		LastUpdated: Rule[string]{
			Field:       FieldInventoryLastUpdated,
			Probability: cfg.LastUpdated,
			Transform:   func(*Source, string) string { return InvalidDate },
		},
		ReceiptAmount:  DriftRule(cfg.ReceiptAmount, cfg.ReceiptDriftMin, cfg.ReceiptDriftMax),
		CustomerEmail:  Rule[string]{Field: FieldCustomerEmail, Probability: cfg.CustomerEmail, Transform: dropAt},
		CustomerRegion: Rule[string]{Field: FieldCustomerRegion, Probability: cfg.CustomerRegion, Transform: func(_ *Source, region string) string { return strings.ToUpper(region) }},
		NoteRate:       cfg.ReceiptNoteRate,
	}
}

// CleanRules disables every corruption rule and receipt notes.
func CleanRules() Rules {
	return NewRules(config.CorruptionConfig{ReceiptDriftMin: 1, ReceiptDriftMax: 1})
}

// DriftRule multiplies an amount by a uniform factor in [lo, hi], rounded to cents.
func DriftRule(probability, lo, hi float64) Rule[Amount] {
	return Rule[Amount]{
		Field:       FieldReceiptAmount,
		Probability: probability,
		Transform: func(src *Source, amount Amount) Amount {
			factor := decimal.NewFromFloat(src.Uniform(lo, hi))
			return NewAmount(amount.Mul(factor))
		},
	}
}

// corruptQuantity yields either no value or a negative count, evenly.
func corruptQuantity(src *Source, _ *int) *int {
	if src.Float64() < 0.5 {
		return nil
	}
	negative := src.IntRange(-20, -1)
	return &negative
}

func dropAt(_ *Source, email string) string {
	return strings.Replace(email, "@", "", 1)
}
