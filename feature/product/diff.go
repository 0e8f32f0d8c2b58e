package product

import "time"

// Wire names of the stored Snapshot fields, in declaration order.
// Diff results follow this order, not discovery order.
const (
	FieldProductID    = "productId"
	FieldName         = "name"
	FieldCategory     = "category"
	FieldIsVegetarian = "isVegetarian"
	FieldIsGlutenFree = "isGlutenFree"
	FieldQuantity     = "quantity"
	FieldPriceFull    = "priceFull"
	FieldPriceCurr    = "priceCurr"
	FieldPicURL       = "picUrl"
	FieldLocationID   = "locationId"
	FieldLocationName = "locationName"
	FieldTimestamp    = "timestamp"
)

// Wire names of the derived (computed) Snapshot fields. Derived fields are
// compared after the stored ones so that a change in e.g. the discount rate
// shows up even when callers only inspect derived entries.
const (
	FieldNameNorm     = "nameNorm"
	FieldCategoryNorm = "categoryNorm"
	FieldIsAvailable  = "isAvailable"
	FieldIsSoldOut    = "isSoldOut"
	FieldIsLastPiece  = "isLastPiece"
	FieldIsOnSale     = "isOnSale"
	FieldDiscountRate = "discountRate"
)

// Change records the before and after values of a single Snapshot field.
type Change struct {
	// Field is the wire name of the changed field.
	Field string
	// Old is the value before the change.
	Old any
	// New is the value after the change.
	New any
}

// Delta is an ordered field-level difference between two snapshots of the
// same product identity. An empty Delta means no observable change.
type Delta []Change

// Empty reports whether no field differs.
func (d Delta) Empty() bool {
	return len(d) == 0
}

// Get returns the change recorded for the given field.
func (d Delta) Get(field string) (Change, bool) {
	for _, c := range d {
		if c.Field == field {
			return c, true
		}
	}
	return Change{}, false
}

// Has reports whether a change is recorded for the given field.
func (d Delta) Has(field string) bool {
	_, ok := d.Get(field)
	return ok
}

// Fields returns the changed field names in declaration order.
func (d Delta) Fields() []string {
	fields := make([]string, 0, len(d))
	for _, c := range d {
		fields = append(fields, c.Field)
	}
	return fields
}

// fieldValue is one (field, value) entry of a snapshot projection.
type fieldValue struct {
	field string
	value any
}

// values projects the snapshot onto its comparable fields: stored fields in
// declaration order followed by derived fields.
func (s Snapshot) values() []fieldValue {
	return []fieldValue{
		{FieldProductID, s.ProductID},
		{FieldName, s.Name},
		{FieldCategory, s.Category},
		{FieldIsVegetarian, s.IsVegetarian},
		{FieldIsGlutenFree, s.IsGlutenFree},
		{FieldQuantity, s.Quantity},
		{FieldPriceFull, s.PriceFull},
		{FieldPriceCurr, s.PriceCurr},
		{FieldPicURL, s.PicURL},
		{FieldLocationID, s.LocationID},
		{FieldLocationName, s.LocationName},
		{FieldTimestamp, s.Timestamp},
		{FieldNameNorm, s.NameNorm()},
		{FieldCategoryNorm, s.CategoryNorm()},
		{FieldIsAvailable, s.IsAvailable()},
		{FieldIsSoldOut, s.IsSoldOut()},
		{FieldIsLastPiece, s.IsLastPiece()},
		{FieldIsOnSale, s.IsOnSale()},
		{FieldDiscountRate, s.DiscountRate()},
	}
}

// Diff compares two snapshots of the same product identity field by field
// using strict equality and returns the ordered Delta. Fields named in
// exclude are skipped; callers typically exclude FieldTimestamp. Diff is
// pure and never fails.
func Diff(old, new Snapshot, exclude ...string) Delta {
	excluded := make(map[string]struct{}, len(exclude))
	for _, f := range exclude {
		excluded[f] = struct{}{}
	}

	oldValues := old.values()
	newValues := new.values()

	var delta Delta
	for i, ov := range oldValues {
		if _, skip := excluded[ov.field]; skip {
			continue
		}
		nv := newValues[i]
		if !equalValues(ov.value, nv.value) {
			delta = append(delta, Change{Field: ov.field, Old: ov.value, New: nv.value})
		}
	}
	return delta
}

// equalValues compares projected field values. Timestamps compare by instant
// so that wall-clock representations with and without a monotonic reading
// are interchangeable.
func equalValues(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}

// PriceChange summarizes the pricing difference between an old and a new
// snapshot of the same product. Deltas are signed; a decrease is negative.
type PriceChange struct {
	// PriceCurrDelta is new.PriceCurr - old.PriceCurr.
	PriceCurrDelta float64
	// PriceFullDelta is new.PriceFull - old.PriceFull.
	PriceFullDelta float64
	// DiscountRateDelta is new.DiscountRate() - old.DiscountRate().
	DiscountRateDelta float64
	// SaleStarted is true when the new snapshot is on sale and the old one
	// was not.
	SaleStarted bool
	// SaleEnded is true when the old snapshot was on sale and the new one
	// is not.
	SaleEnded bool
}

// PriceCurrDecrease returns the magnitude of the current price decrease,
// zero when the price did not drop.
func (p PriceChange) PriceCurrDecrease() float64 { return negPart(p.PriceCurrDelta) }

// PriceCurrIncrease returns the magnitude of the current price increase,
// zero when the price did not rise.
func (p PriceChange) PriceCurrIncrease() float64 { return posPart(p.PriceCurrDelta) }

// PriceFullDecrease returns the magnitude of the full price decrease.
func (p PriceChange) PriceFullDecrease() float64 { return negPart(p.PriceFullDelta) }

// PriceFullIncrease returns the magnitude of the full price increase.
func (p PriceChange) PriceFullIncrease() float64 { return posPart(p.PriceFullDelta) }

// ComparePrice compares the pricing of an old snapshot with a newer snapshot
// of the same product.
func ComparePrice(old, new Snapshot) PriceChange {
	return PriceChange{
		PriceCurrDelta:    new.PriceCurr - old.PriceCurr,
		PriceFullDelta:    new.PriceFull - old.PriceFull,
		DiscountRateDelta: new.DiscountRate() - old.DiscountRate(),
		SaleStarted:       !old.IsOnSale() && new.IsOnSale(),
		SaleEnded:         old.IsOnSale() && !new.IsOnSale(),
	}
}

// StockChange summarizes the stock quantity difference between an old and a
// new snapshot of the same product. The delta is signed; a decrease is
// negative.
type StockChange struct {
	// QuantityDelta is new.Quantity - old.Quantity.
	QuantityDelta int
	// Depleted is true when the old snapshot had stock and the new one is
	// sold out.
	Depleted bool
	// Restocked is true when the old snapshot was sold out and the new one
	// has stock.
	Restocked bool
}

// StockDecrease returns how many items fewer the new snapshot has, zero when
// stock did not drop.
func (s StockChange) StockDecrease() int {
	if s.QuantityDelta < 0 {
		return -s.QuantityDelta
	}
	return 0
}

// StockIncrease returns how many items more the new snapshot has, zero when
// stock did not rise.
func (s StockChange) StockIncrease() int {
	if s.QuantityDelta > 0 {
		return s.QuantityDelta
	}
	return 0
}

// CompareStock compares the stock quantity of an old snapshot with a newer
// snapshot of the same product.
func CompareStock(old, new Snapshot) StockChange {
	return StockChange{
		QuantityDelta: new.Quantity - old.Quantity,
		Depleted:      old.IsAvailable() && new.IsSoldOut(),
		Restocked:     old.IsSoldOut() && new.IsAvailable(),
	}
}

func negPart(v float64) float64 {
	if v < 0 {
		return -v
	}
	return 0
}

func posPart(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
