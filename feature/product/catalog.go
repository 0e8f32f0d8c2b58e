package product

import (
	"encoding/json"
	"fmt"
)

// Catalog is the full set of current snapshots of one location's product
// page, in page order. A catalog is replaced wholesale on each successful
// fetch+parse cycle and is never mutated while a reconciliation reads it.
type Catalog struct {
	locationID   int
	locationName string
	fingerprint  string
	ids          []int
	items        map[int]Snapshot
}

// NewCatalog creates an empty catalog for the given location.
func NewCatalog(locationID int) *Catalog {
	return &Catalog{
		locationID: locationID,
		items:      make(map[int]Snapshot),
	}
}

// BuildCatalog creates a catalog from parsed snapshots, keeping their order.
// The fingerprint identifies the source markup the snapshots were parsed
// from. Later snapshots with a duplicate product ID replace earlier ones in
// place.
func BuildCatalog(locationID int, fingerprint string, snapshots []Snapshot) *Catalog {
	c := NewCatalog(locationID)
	c.fingerprint = fingerprint
	for _, s := range snapshots {
		c.put(s)
	}
	return c
}

// put inserts or replaces a snapshot, preserving insertion order.
func (c *Catalog) put(s Snapshot) {
	if _, exists := c.items[s.ProductID]; !exists {
		c.ids = append(c.ids, s.ProductID)
	}
	c.items[s.ProductID] = s
	if c.locationName == "" {
		c.locationName = s.LocationName
	}
}

// LocationID returns the identity of the location this catalog belongs to.
func (c *Catalog) LocationID() int {
	return c.locationID
}

// LocationName returns the display name of the location, taken from the
// first snapshot that carries one.
func (c *Catalog) LocationName() string {
	return c.locationName
}

// Fingerprint returns the content fingerprint of the source markup.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Get returns the snapshot for the given product ID.
func (c *Catalog) Get(productID int) (Snapshot, bool) {
	s, ok := c.items[productID]
	return s, ok
}

// IDs returns the product IDs in catalog order.
func (c *Catalog) IDs() []int {
	ids := make([]int, len(c.ids))
	copy(ids, c.ids)
	return ids
}

// Snapshots returns the snapshots in catalog order.
func (c *Catalog) Snapshots() []Snapshot {
	snapshots := make([]Snapshot, 0, len(c.ids))
	for _, id := range c.ids {
		snapshots = append(snapshots, c.items[id])
	}
	return snapshots
}

// Names returns the non-empty product names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.ids))
	for _, id := range c.ids {
		if name := c.items[id].Name; name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Categories returns the distinct non-empty category labels in catalog order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, id := range c.ids {
		category := c.items[id].Category
		if category == "" {
			continue
		}
		if _, dup := seen[category]; dup {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	return categories
}

// catalogWire is the persisted representation of a Catalog. Products are
// serialized as an array so that catalog order survives the round-trip.
type catalogWire struct {
	LocationID   int        `json:"locationId"`
	LocationName string     `json:"locationName"`
	Fingerprint  string     `json:"fingerprint"`
	Products     []Snapshot `json:"products"`
}

// MarshalJSON serializes the catalog including its order and metadata.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(catalogWire{
		LocationID:   c.locationID,
		LocationName: c.locationName,
		Fingerprint:  c.fingerprint,
		Products:     c.Snapshots(),
	})
}

// UnmarshalJSON restores a catalog persisted by MarshalJSON.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var wire catalogWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to decode catalog: %w", err)
	}
	restored := BuildCatalog(wire.LocationID, wire.Fingerprint, wire.Products)
	if wire.LocationName != "" {
		restored.locationName = wire.LocationName
	}
	*c = *restored
	return nil
}
