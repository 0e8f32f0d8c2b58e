package product

import "strings"

// Constraint is a predicate over a snapshot, used to filter catalogs.
type Constraint func(Snapshot) bool

// WithID matches the product with the given identity.
func WithID(productID int) Constraint {
	return func(s Snapshot) bool { return s.ProductID == productID }
}

// WithName matches products whose normalized name contains the normalized
// query, allowing partial, case- and diacritics-insensitive matches.
func WithName(query string) Constraint {
	normalized := Normalize(query)
	return func(s Snapshot) bool { return strings.Contains(s.NameNorm(), normalized) }
}

// WithCategory matches products whose normalized category contains the
// normalized query.
func WithCategory(query string) Constraint {
	normalized := Normalize(query)
	return func(s Snapshot) bool { return strings.Contains(s.CategoryNorm(), normalized) }
}

// Vegetarian matches products with the given vegetarian flag.
func Vegetarian(value bool) Constraint {
	return func(s Snapshot) bool { return s.IsVegetarian == value }
}

// GlutenFree matches products with the given gluten-free flag.
func GlutenFree(value bool) Constraint {
	return func(s Snapshot) bool { return s.IsGlutenFree == value }
}

// Available matches products with at least one item in stock.
func Available() Constraint {
	return func(s Snapshot) bool { return s.IsAvailable() }
}

// OnSale matches products whose current price is below the full price.
func OnSale() Constraint {
	return func(s Snapshot) bool { return s.IsOnSale() }
}

// Find returns the first snapshot in catalog order satisfying all
// constraints.
func (c *Catalog) Find(constraints ...Constraint) (Snapshot, bool) {
	for _, id := range c.ids {
		s := c.items[id]
		if matches(s, constraints) {
			return s, true
		}
	}
	return Snapshot{}, false
}

// FindAll returns every snapshot in catalog order satisfying all
// constraints.
func (c *Catalog) FindAll(constraints ...Constraint) []Snapshot {
	var found []Snapshot
	for _, id := range c.ids {
		s := c.items[id]
		if matches(s, constraints) {
			found = append(found, s)
		}
	}
	return found
}

func matches(s Snapshot, constraints []Constraint) bool {
	for _, constraint := range constraints {
		if !constraint(s) {
			return false
		}
	}
	return true
}
