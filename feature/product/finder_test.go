package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finderCatalog() *Catalog {
	return BuildCatalog(296, "fp-1", []Snapshot{
		{ProductID: 1, Name: "Povidlové buchty", Category: "Sladké pečivo", Quantity: 4, PriceFull: 57.52, PriceCurr: 40.26, IsVegetarian: true},
		{ProductID: 2, Name: "Kuřecí wrap", Category: "Bagety", Quantity: 0, PriceFull: 89, PriceCurr: 89},
		{ProductID: 3, Name: "Bagetka šunková", Category: "Bagety", Quantity: 2, PriceFull: 65, PriceCurr: 65},
		{ProductID: 4, Name: "Salát Caesar", Category: "Saláty", Quantity: 1, PriceFull: 99, PriceCurr: 79, IsGlutenFree: true},
	})
}

func TestFindByName(t *testing.T) {
	c := finderCatalog()

	// Diacritics and case do not matter, partial matches do.
	s, ok := c.Find(WithName("povidlove"))
	require.True(t, ok)
	assert.Equal(t, 1, s.ProductID)

	s, ok = c.Find(WithName("WRAP"))
	require.True(t, ok)
	assert.Equal(t, 2, s.ProductID)

	_, ok = c.Find(WithName("pizza"))
	assert.False(t, ok)
}

func TestFindFirstInCatalogOrder(t *testing.T) {
	c := finderCatalog()

	s, ok := c.Find(WithCategory("bagety"))
	require.True(t, ok)
	assert.Equal(t, 2, s.ProductID)
}

func TestFindAll(t *testing.T) {
	c := finderCatalog()

	tests := []struct {
		name        string
		constraints []Constraint
		wantIDs     []int
	}{
		{name: "no constraints", constraints: nil, wantIDs: []int{1, 2, 3, 4}},
		{name: "category", constraints: []Constraint{WithCategory("Bagety")}, wantIDs: []int{2, 3}},
		{name: "available", constraints: []Constraint{Available()}, wantIDs: []int{1, 3, 4}},
		{name: "on sale", constraints: []Constraint{OnSale()}, wantIDs: []int{1, 4}},
		{name: "vegetarian", constraints: []Constraint{Vegetarian(true)}, wantIDs: []int{1}},
		{name: "gluten free", constraints: []Constraint{GlutenFree(true)}, wantIDs: []int{4}},
		{name: "combined", constraints: []Constraint{WithCategory("bagety"), Available()}, wantIDs: []int{3}},
		{name: "by id", constraints: []Constraint{WithID(4)}, wantIDs: []int{4}},
		{name: "none match", constraints: []Constraint{WithID(4), Vegetarian(true)}, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := c.FindAll(tt.constraints...)
			ids := make([]int, 0, len(found))
			for _, s := range found {
				ids = append(ids, s.ProductID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
