package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		ProductID:    1480,
		Name:         "Povidlové buchty",
		Category:     "Sladké pečivo",
		Quantity:     4,
		PriceFull:    57.52,
		PriceCurr:    40.26,
		PicURL:       DefaultPicURL,
		LocationID:   296,
		LocationName: "Main Office",
		Timestamp:    time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestDiffIdentical(t *testing.T) {
	s := baseSnapshot()
	assert.True(t, Diff(s, s).Empty())
}

func TestDiffTimestampOnly(t *testing.T) {
	old := baseSnapshot()
	new := old
	new.Timestamp = old.Timestamp.Add(time.Minute)

	delta := Diff(old, new)
	require.Len(t, delta, 1)
	assert.Equal(t, FieldTimestamp, delta[0].Field)

	// With the timestamp excluded two observations of the same state
	// compare as unchanged.
	assert.True(t, Diff(old, new, FieldTimestamp).Empty())
}

func TestDiffRecordsDerivedFields(t *testing.T) {
	old := baseSnapshot()
	new := old
	new.Quantity = 0
	new.PriceCurr = 57.52
	new.Timestamp = old.Timestamp.Add(time.Minute)

	delta := Diff(old, new, FieldTimestamp)

	assert.Equal(t, []string{
		FieldQuantity,
		FieldPriceCurr,
		FieldIsAvailable,
		FieldIsSoldOut,
		FieldIsOnSale,
		FieldDiscountRate,
	}, delta.Fields())

	change, ok := delta.Get(FieldQuantity)
	require.True(t, ok)
	assert.Equal(t, 4, change.Old)
	assert.Equal(t, 0, change.New)

	assert.False(t, delta.Has(FieldPriceFull))
	assert.False(t, delta.Has(FieldName))
}

func TestDiffFieldOrder(t *testing.T) {
	old := baseSnapshot()
	new := old
	new.Name = "Buchty povidlové"
	new.Category = "Pečivo"
	new.Quantity = 2

	delta := Diff(old, new, FieldTimestamp)
	assert.Equal(t, []string{
		FieldName,
		FieldCategory,
		FieldQuantity,
		FieldNameNorm,
		FieldCategoryNorm,
	}, delta.Fields())
}

func TestDiffEquivalentTimestamps(t *testing.T) {
	old := baseSnapshot()
	new := old
	// Same instant in a different location compares as equal.
	new.Timestamp = old.Timestamp.In(time.FixedZone("CET", 3600))

	assert.True(t, Diff(old, new).Empty())
}

func TestComparePrice(t *testing.T) {
	t.Run("sale ended", func(t *testing.T) {
		old := baseSnapshot()
		new := old
		new.PriceCurr = 57.52

		change := ComparePrice(old, new)
		assert.InDelta(t, 17.26, change.PriceCurrIncrease(), 1e-9)
		assert.Zero(t, change.PriceCurrDecrease())
		assert.Zero(t, change.PriceFullDelta)
		assert.InDelta(t, -0.30, change.DiscountRateDelta, 1e-9)
		assert.True(t, change.SaleEnded)
		assert.False(t, change.SaleStarted)
	})

	t.Run("sale started", func(t *testing.T) {
		old := baseSnapshot()
		old.PriceCurr = 57.52
		new := old
		new.PriceCurr = 40.26

		change := ComparePrice(old, new)
		assert.InDelta(t, 17.26, change.PriceCurrDecrease(), 1e-9)
		assert.Zero(t, change.PriceCurrIncrease())
		assert.True(t, change.SaleStarted)
		assert.False(t, change.SaleEnded)
	})

	t.Run("full price change", func(t *testing.T) {
		old := baseSnapshot()
		old.PriceCurr = 57.52
		new := old
		new.PriceFull = 60
		new.PriceCurr = 60

		change := ComparePrice(old, new)
		assert.InDelta(t, 2.48, change.PriceFullIncrease(), 1e-9)
		assert.Zero(t, change.PriceFullDecrease())
		assert.False(t, change.SaleStarted)
		assert.False(t, change.SaleEnded)
	})

	t.Run("no change", func(t *testing.T) {
		old := baseSnapshot()
		change := ComparePrice(old, old)
		assert.Zero(t, change.PriceCurrDelta)
		assert.Zero(t, change.PriceFullDelta)
		assert.Zero(t, change.DiscountRateDelta)
		assert.False(t, change.SaleStarted)
		assert.False(t, change.SaleEnded)
	})
}

func TestCompareStock(t *testing.T) {
	t.Run("depleted", func(t *testing.T) {
		old := baseSnapshot()
		new := old
		new.Quantity = 0

		change := CompareStock(old, new)
		assert.Equal(t, 4, change.StockDecrease())
		assert.Zero(t, change.StockIncrease())
		assert.True(t, change.Depleted)
		assert.False(t, change.Restocked)
	})

	t.Run("restocked", func(t *testing.T) {
		old := baseSnapshot()
		old.Quantity = 0
		new := old
		new.Quantity = 7

		change := CompareStock(old, new)
		assert.Equal(t, 7, change.StockIncrease())
		assert.Zero(t, change.StockDecrease())
		assert.True(t, change.Restocked)
		assert.False(t, change.Depleted)
	})

	t.Run("partial decrease", func(t *testing.T) {
		old := baseSnapshot()
		new := old
		new.Quantity = 3

		change := CompareStock(old, new)
		assert.Equal(t, 1, change.StockDecrease())
		assert.False(t, change.Depleted)
		assert.False(t, change.Restocked)
	})
}
