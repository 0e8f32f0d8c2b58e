package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshpoint-watch/feature/product"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "catalogs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testCatalog(locationID int) *product.Catalog {
	return product.BuildCatalog(locationID, "fp-1", []product.Snapshot{
		{ProductID: 1, Name: "Povidlové buchty", Category: "Sladké pečivo", Quantity: 4, PriceFull: 57.52, PriceCurr: 40.26, LocationID: locationID, LocationName: "Main Office", Timestamp: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)},
		{ProductID: 2, Name: "Kuřecí wrap", Category: "Bagety", Quantity: 1, PriceFull: 89, PriceCurr: 89, LocationID: locationID, LocationName: "Main Office", Timestamp: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)},
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestSaveAndLoadCatalog(t *testing.T) {
	s := openTestStore(t)
	saved := testCatalog(296)

	require.NoError(t, s.SaveCatalog(saved))

	loaded, found, err := s.LoadCatalog(296)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, saved.LocationID(), loaded.LocationID())
	assert.Equal(t, saved.LocationName(), loaded.LocationName())
	assert.Equal(t, saved.Fingerprint(), loaded.Fingerprint())
	assert.Equal(t, saved.IDs(), loaded.IDs())

	for _, id := range saved.IDs() {
		before, _ := saved.Get(id)
		after, ok := loaded.Get(id)
		require.True(t, ok)
		assert.True(t, product.Diff(before, after).Empty())
	}
}

func TestLoadCatalogMissing(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.LoadCatalog(999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveCatalogReplaces(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveCatalog(testCatalog(296)))

	replacement := product.BuildCatalog(296, "fp-2", []product.Snapshot{
		{ProductID: 3, Name: "Salát Caesar", Quantity: 2, LocationID: 296},
	})
	require.NoError(t, s.SaveCatalog(replacement))

	loaded, found, err := s.LoadCatalog(296)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "fp-2", loaded.Fingerprint())
	assert.Equal(t, []int{3}, loaded.IDs())
}

func TestDeleteCatalog(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveCatalog(testCatalog(296)))

	require.NoError(t, s.DeleteCatalog(296))

	_, found, err := s.LoadCatalog(296)
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing catalog is not an error.
	require.NoError(t, s.DeleteCatalog(296))
}

func TestLocations(t *testing.T) {
	s := openTestStore(t)

	locations, err := s.Locations()
	require.NoError(t, err)
	assert.Empty(t, locations)

	require.NoError(t, s.SaveCatalog(testCatalog(296)))
	require.NoError(t, s.SaveCatalog(testCatalog(42)))

	locations, err = s.Locations()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{42, 296}, locations)
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.SaveCatalog(testCatalog(296)), ErrStoreClosed)
	_, _, err := s.LoadCatalog(296)
	assert.ErrorIs(t, err, ErrStoreClosed)

	// Closing twice is a no-op.
	assert.NoError(t, s.Close())
}
