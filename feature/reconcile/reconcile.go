package reconcile

import (
	"freshpoint-watch/feature/product"
)

// EventKind labels the primary classification of one reconciled change.
type EventKind string

const (
	// KindAdded marks a product present in the new catalog only.
	KindAdded EventKind = "ADDED"
	// KindRemoved marks a product present in the old catalog only.
	KindRemoved EventKind = "REMOVED"
	// KindChanged marks any observable change of a surviving product.
	KindChanged EventKind = "CHANGED"
	// KindQuantityChanged marks a stock quantity change.
	KindQuantityChanged EventKind = "QUANTITY_CHANGED"
	// KindPriceChanged marks a change of either price field.
	KindPriceChanged EventKind = "PRICE_CHANGED"
	// KindOtherChanged marks a change outside quantity and prices.
	KindOtherChanged EventKind = "OTHER_CHANGED"

	// KindAny is the subscription wildcard matching every event kind.
	KindAny EventKind = "*"
)

// Kinds lists the concrete event kinds, wildcard excluded.
func Kinds() []EventKind {
	return []EventKind{
		KindAdded,
		KindRemoved,
		KindChanged,
		KindQuantityChanged,
		KindPriceChanged,
		KindOtherChanged,
	}
}

// Valid reports whether the kind is a concrete event kind.
func (k EventKind) Valid() bool {
	switch k {
	case KindAdded, KindRemoved, KindChanged,
		KindQuantityChanged, KindPriceChanged, KindOtherChanged:
		return true
	}
	return false
}

// Event is one reconciled change. Old is nil for added products and New is
// nil for removed ones; change events carry both snapshots and the field
// delta that triggered them.
type Event struct {
	// Kind is the primary classification of the change.
	Kind EventKind
	// Old is the snapshot before the change, nil for KindAdded.
	Old *product.Snapshot
	// New is the snapshot after the change, nil for KindRemoved.
	New *product.Snapshot
	// Delta lists the changed fields, empty for KindAdded and KindRemoved.
	Delta product.Delta
}

// ProductID returns the product identity of the event, taken from whichever
// snapshot is present, preferring the new one.
func (e Event) ProductID() int {
	if e.New != nil {
		return e.New.ProductID
	}
	if e.Old != nil {
		return e.Old.ProductID
	}
	return 0
}

// Reconcile compares two catalogs of the same location and returns the
// ordered change events.
//
// Removals come first, in old catalog order. Additions and changes follow in
// new catalog order. A surviving product whose delta (timestamp excluded) is
// non-empty yields a generic KindChanged event, then KindQuantityChanged if
// the quantity differs, KindPriceChanged if either price field differs, and
// KindOtherChanged if any remaining stored field differs; events of one
// product are always emitted together in that order. Reconcile is pure and
// never fails for well-formed catalogs.
func Reconcile(old, new *product.Catalog) []Event {
	var events []Event

	for _, id := range old.IDs() {
		if _, survives := new.Get(id); survives {
			continue
		}
		removed, _ := old.Get(id)
		events = append(events, Event{Kind: KindRemoved, Old: &removed})
	}

	for _, id := range new.IDs() {
		current, _ := new.Get(id)
		previous, existed := old.Get(id)
		if !existed {
			events = append(events, Event{Kind: KindAdded, New: &current})
			continue
		}

		delta := product.Diff(previous, current, product.FieldTimestamp)
		if delta.Empty() {
			continue
		}

		oldCopy, newCopy := previous, current
		changed := Event{Kind: KindChanged, Old: &oldCopy, New: &newCopy, Delta: delta}
		events = append(events, changed)
		for _, kind := range subKinds(delta) {
			sub := changed
			sub.Kind = kind
			events = append(events, sub)
		}
	}

	return events
}

// subKinds classifies a non-empty delta into the specific event kinds, in
// their fixed emission order.
func subKinds(delta product.Delta) []EventKind {
	var kinds []EventKind
	if delta.Has(product.FieldQuantity) {
		kinds = append(kinds, KindQuantityChanged)
	}
	if delta.Has(product.FieldPriceCurr) || delta.Has(product.FieldPriceFull) {
		kinds = append(kinds, KindPriceChanged)
	}
	if hasOtherChange(delta) {
		kinds = append(kinds, KindOtherChanged)
	}
	return kinds
}

// hasOtherChange reports whether a stored field outside quantity and prices
// changed. Derived fields never count on their own; each one follows from a
// stored field.
func hasOtherChange(delta product.Delta) bool {
	others := []string{
		product.FieldProductID,
		product.FieldName,
		product.FieldCategory,
		product.FieldIsVegetarian,
		product.FieldIsGlutenFree,
		product.FieldPicURL,
		product.FieldLocationID,
		product.FieldLocationName,
	}
	for _, field := range others {
		if delta.Has(field) {
			return true
		}
	}
	return false
}
