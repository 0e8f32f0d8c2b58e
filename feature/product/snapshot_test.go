package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotValidation(t *testing.T) {
	tests := []struct {
		name   string
		params SnapshotParams
		field  string
	}{
		{name: "missing id", params: SnapshotParams{}, field: "productId"},
		{name: "negative id", params: SnapshotParams{ProductID: -3}, field: "productId"},
		{name: "negative quantity", params: SnapshotParams{ProductID: 1, Quantity: -1}, field: "quantity"},
		{name: "negative full price", params: SnapshotParams{ProductID: 1, PriceFull: -2}, field: "priceFull"},
		{name: "negative current price", params: SnapshotParams{ProductID: 1, PriceCurr: -2}, field: "priceCurr"},
		{name: "negative location", params: SnapshotParams{ProductID: 1, LocationID: -1}, field: "locationId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(tt.params)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNewSnapshotPriceDefaulting(t *testing.T) {
	tests := []struct {
		name      string
		priceFull float64
		priceCurr float64
		wantFull  float64
		wantCurr  float64
	}{
		{name: "both missing", priceFull: PriceNotSet, priceCurr: PriceNotSet, wantFull: 0, wantCurr: 0},
		{name: "current missing mirrors full", priceFull: 57.52, priceCurr: PriceNotSet, wantFull: 57.52, wantCurr: 57.52},
		{name: "full missing mirrors current", priceFull: PriceNotSet, priceCurr: 40.26, wantFull: 40.26, wantCurr: 40.26},
		{name: "both set", priceFull: 57.52, priceCurr: 40.26, wantFull: 57.52, wantCurr: 40.26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSnapshot(SnapshotParams{
				ProductID: 1,
				PriceFull: tt.priceFull,
				PriceCurr: tt.priceCurr,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFull, s.PriceFull)
			assert.Equal(t, tt.wantCurr, s.PriceCurr)
		})
	}
}

func TestNewSnapshotDefaults(t *testing.T) {
	s, err := NewSnapshot(SnapshotParams{ProductID: 1})
	require.NoError(t, err)

	assert.Equal(t, DefaultPicURL, s.PicURL)
	assert.False(t, s.Timestamp.IsZero())
}

func TestSnapshotDerived(t *testing.T) {
	s := Snapshot{
		ProductID: 1,
		Name:      " Povidlové buchty ",
		Category:  "Sladké pečivo",
		Quantity:  0,
		PriceFull: 57.52,
		PriceCurr: 40.26,
	}

	assert.Equal(t, "povidlove buchty", s.NameNorm())
	assert.Equal(t, "sladke pecivo", s.CategoryNorm())
	assert.True(t, s.IsSoldOut())
	assert.False(t, s.IsAvailable())
	assert.False(t, s.IsLastPiece())
	assert.True(t, s.IsOnSale())
	assert.InDelta(t, 0.30, s.DiscountRate(), 1e-9)

	s.Quantity = 1
	assert.True(t, s.IsLastPiece())
	assert.True(t, s.IsAvailable())
}

func TestDiscountRateEdgeCases(t *testing.T) {
	t.Run("zero full price", func(t *testing.T) {
		s := Snapshot{ProductID: 1, PriceFull: 0, PriceCurr: 0}
		assert.Zero(t, s.DiscountRate())
	})

	t.Run("current above full", func(t *testing.T) {
		// May legitimately happen transiently; not an error.
		s := Snapshot{ProductID: 1, PriceFull: 10, PriceCurr: 12}
		assert.Zero(t, s.DiscountRate())
		assert.False(t, s.IsOnSale())
	})
}

func TestIsNewerThan(t *testing.T) {
	now := time.Now()
	older := Snapshot{ProductID: 1, Timestamp: now}
	newer := Snapshot{ProductID: 1, Timestamp: now.Add(time.Second)}

	assert.True(t, newer.IsNewerThan(older))
	assert.False(t, older.IsNewerThan(newer))

	// Irreflexive: equal timestamps are not newer.
	assert.False(t, older.IsNewerThan(older))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Bagetka šunková", want: "bagetka sunkova"},
		{in: "  ŘÍZEK  ", want: "rizek"},
		{in: "plain", want: "plain"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}
