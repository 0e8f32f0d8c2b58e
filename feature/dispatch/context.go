package dispatch

import (
	"freshpoint-watch/feature/product"
	"freshpoint-watch/feature/reconcile"
)

// Context is the read-only view of one dispatched event that handlers
// receive. It exposes the event itself together with convenience accessors
// and the caller-supplied side-channel data.
type Context struct {
	event  reconcile.Event
	extras map[string]any
}

// NewContext builds a handler context for the given event. The extras
// mapping is shared by reference and must not be mutated by handlers.
func NewContext(event reconcile.Event, extras map[string]any) *Context {
	return &Context{event: event, extras: extras}
}

// Kind returns the primary kind of the dispatched event.
func (c *Context) Kind() reconcile.EventKind {
	return c.event.Kind
}

// Event returns the dispatched event.
func (c *Context) Event() reconcile.Event {
	return c.event
}

// Old returns the snapshot before the change, nil for added products.
func (c *Context) Old() *product.Snapshot {
	return c.event.Old
}

// New returns the snapshot after the change, nil for removed products.
func (c *Context) New() *product.Snapshot {
	return c.event.New
}

// Snapshot returns whichever snapshot is present, preferring the new one.
func (c *Context) Snapshot() *product.Snapshot {
	if c.event.New != nil {
		return c.event.New
	}
	return c.event.Old
}

// Delta returns the changed fields of a change event, empty for additions
// and removals.
func (c *Context) Delta() product.Delta {
	return c.event.Delta
}

// ProductID returns the product identity of the event.
func (c *Context) ProductID() int {
	return c.event.ProductID()
}

// ProductName returns the product name taken from whichever snapshot is
// present.
func (c *Context) ProductName() string {
	if s := c.Snapshot(); s != nil {
		return s.Name
	}
	return ""
}

// LocationID returns the location identity of the event.
func (c *Context) LocationID() int {
	if s := c.Snapshot(); s != nil {
		return s.LocationID
	}
	return 0
}

// LocationName returns the location display name of the event.
func (c *Context) LocationName() string {
	if s := c.Snapshot(); s != nil {
		return s.LocationName
	}
	return ""
}

// StockChange returns the stock comparison of a change event. The second
// return value is false when either snapshot is missing.
func (c *Context) StockChange() (product.StockChange, bool) {
	if c.event.Old == nil || c.event.New == nil {
		return product.StockChange{}, false
	}
	return product.CompareStock(*c.event.Old, *c.event.New), true
}

// PriceChange returns the price comparison of a change event. The second
// return value is false when either snapshot is missing.
func (c *Context) PriceChange() (product.PriceChange, bool) {
	if c.event.Old == nil || c.event.New == nil {
		return product.PriceChange{}, false
	}
	return product.ComparePrice(*c.event.Old, *c.event.New), true
}

// Value looks up a key in the side-channel data attached to the dispatch.
func (c *Context) Value(key string) (any, bool) {
	value, ok := c.extras[key]
	return value, ok
}
