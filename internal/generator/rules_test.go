package generator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dirtyfeed/pkg/config"
)

func TestRuleApplyBounds(t *testing.T) {
	src := NewSource(1, fixedClock)
	upper := Rule[string]{Field: "x", Probability: 1, Transform: func(_ *Source, v string) string { return v + "!" }}
	for i := 0; i < 100; i++ {
		out, fired := upper.Apply(src, "a")
		require.True(t, fired)
		require.Equal(t, "a!", out)
	}

	never := upper
	never.Probability = 0
	out, fired := never.Apply(src, "a")
	assert.False(t, fired)
	assert.Equal(t, "a", out)
}

func TestZeroProbabilityConsumesNoDraw(t *testing.T) {
	a, b := NewSource(5, fixedClock), NewSource(5, fixedClock)
	rule := Rule[int]{Probability: 0, Transform: func(_ *Source, v int) int { return v }}
	rule.Apply(a, 1)
	assert.Equal(t, a.Float64(), b.Float64())
}

func TestNewRulesTransforms(t *testing.T) {
	rules := NewRules(config.CorruptionConfig{
		CustomerEmail: 1, CustomerRegion: 1, ReceiptDriftMin: 1, ReceiptDriftMax: 1,
	})
	src := NewSource(1, fixedClock)

	email, fired := rules.CustomerEmail.Apply(src, "jane@example.com")
	assert.True(t, fired)
	assert.Equal(t, "janeexample.com", email)

	region, _ := rules.CustomerRegion.Apply(src, "Peru")
	assert.Equal(t, "PERU", region)

	_, fired = rules.ProductName.Apply(src, "Phone")
	assert.False(t, fired)
}

func TestDefectsTally(t *testing.T) {
	d := Defects{}
	src := NewSource(1, fixedClock)
	rule := Rule[int]{Field: FieldInventoryQuantity, Probability: 1, Transform: func(_ *Source, v int) int { return -v }}
	for i := 0; i < 3; i++ {
		apply(d, rule, src, i)
	}
	assert.Equal(t, 3, d[FieldInventoryQuantity])
	assert.Equal(t, 3, d.Total())
}

func TestSourceDeterminism(t *testing.T) {
	a, b := NewSource(99, fixedClock), NewSource(99, fixedClock)
	for i := 0; i < 20; i++ {
		require.Equal(t, a.ID(), b.ID())
		require.Equal(t, a.IntRange(0, 500), b.IntRange(0, 500))
		require.Equal(t, a.Email(), b.Email())
	}
	assert.Equal(t, uint64(99), a.Seed())

	clockSeeded := NewSource(0, fixedClock)
	assert.Equal(t, uint64(fixedNow.UnixNano()), clockSeeded.Seed())
}

func TestSourceRanges(t *testing.T) {
	src := NewSource(8, fixedClock)
	for i := 0; i < 500; i++ {
		n := src.IntRange(-20, -1)
		require.True(t, n >= -20 && n <= -1)
		ts := src.TimeThisYear()
		require.Equal(t, 2026, ts.Year())
		require.False(t, ts.After(fixedNow))
	}
	assert.Equal(t, 7, src.IntRange(7, 7))
}

func TestAmountAndTimestampEncoding(t *testing.T) {
	out, err := json.Marshal(struct {
		Amount Amount    `json:"amount"`
		When   Timestamp `json:"when"`
	}{AmountFromCents(11000), Timestamp{time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":110.00,"when":"2026-03-04 05:06:07"}`, string(out))
	assert.Contains(t, string(out), `"amount":110.00`)

	var back struct {
		Amount Amount    `json:"amount"`
		When   Timestamp `json:"when"`
	}
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "110.00", back.Amount.String())
	assert.Equal(t, 5, back.When.Hour())
}
