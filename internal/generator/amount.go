package generator

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the wire format of every generated date.
const TimestampLayout = "2006-01-02 15:04:05"

// InvalidDate is the sentinel written by the last_updated corruption rule.
const InvalidDate = "INVALID_DATE"

// Amount is a monetary value held at cent precision. It encodes as a bare JSON
// number with two decimals.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{d.Round(2)}
}

// AmountFromCents is a convenience for fixtures.
func AmountFromCents(cents int64) Amount {
	return Amount{decimal.New(cents, -2)}
}

func (a Amount) String() string {
	return a.StringFixed(2)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

// SumAmounts returns the exact sum of amounts.
func SumAmounts(amounts ...Amount) Amount {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Decimal)
	}
	return Amount{total}
}

// Timestamp encodes as TimestampLayout.
type Timestamp struct {
	time.Time
}

func (t Timestamp) String() string {
	return t.Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(TimestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(raw []byte) error {
	if string(raw) == "null" {
		return nil
	}
	parsed, err := time.Parse(`"`+TimestampLayout+`"`, string(raw))
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses a TimestampLayout string.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}
