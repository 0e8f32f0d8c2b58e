package product

import (
	"fmt"
	"math"
	"time"
)

// PriceNotSet flags that a price argument has not been provided.
const PriceNotSet = -1

// DefaultPicURL is the fallback product picture used when a product entry
// carries no photo reference.
const DefaultPicURL = "https://images.weserv.nl/?url=http://freshpoint.freshserver.cz/" +
	"backend/web/media/photo/1_f587dd3fa21b22.jpg"

// Snapshot is an immutable-by-convention record of one product's observed
// attributes at one point in time. Snapshots of the same product identity
// (ProductID + LocationID) taken at different times are compared by Diff,
// ComparePrice and CompareStock.
type Snapshot struct {
	// ProductID is the unique identifier of the product within a catalog.
	ProductID int `json:"productId"`
	// Name is the display name of the product.
	Name string `json:"name"`
	// Category is the category label of the product.
	Category string `json:"category"`
	// IsVegetarian indicates whether the product is vegetarian.
	IsVegetarian bool `json:"isVegetarian"`
	// IsGlutenFree indicates whether the product is gluten-free.
	IsGlutenFree bool `json:"isGlutenFree"`
	// Quantity is the number of product items in stock.
	Quantity int `json:"quantity"`
	// PriceFull is the full (regular) price of the product.
	PriceFull float64 `json:"priceFull"`
	// PriceCurr is the current selling price of the product.
	PriceCurr float64 `json:"priceCurr"`
	// PicURL is an opaque reference to the product picture.
	PicURL string `json:"picUrl"`
	// LocationID is the unique identifier of the product page location.
	LocationID int `json:"locationId"`
	// LocationName is the display name of the product location.
	LocationName string `json:"locationName"`
	// Timestamp records when the snapshot was observed.
	Timestamp time.Time `json:"timestamp"`
}

// SnapshotParams bundles the constructor arguments of a Snapshot.
// PriceFull and PriceCurr default to PriceNotSet so that an absent price can
// be told apart from a zero price.
type SnapshotParams struct {
	ProductID    int
	Name         string
	Category     string
	IsVegetarian bool
	IsGlutenFree bool
	Quantity     int
	PriceFull    float64
	PriceCurr    float64
	PicURL       string
	LocationID   int
	LocationName string
	Timestamp    time.Time
}

// ValidationError describes a Snapshot field that failed validation.
type ValidationError struct {
	// Field is the name of the offending field.
	Field string
	// Reason describes why the value was rejected.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid snapshot: %s %s", e.Field, e.Reason)
}

// NewSnapshot validates the given parameters and builds a Snapshot.
//
// One missing price mirrors the other one; when both are missing they default
// to zero. A missing picture reference defaults to DefaultPicURL and a zero
// timestamp defaults to the current time. A typed *ValidationError is
// returned instead of a partially built value when a field is out of range.
func NewSnapshot(p SnapshotParams) (Snapshot, error) {
	if p.ProductID <= 0 {
		return Snapshot{}, &ValidationError{Field: "productId", Reason: "must be positive"}
	}
	if p.Quantity < 0 {
		return Snapshot{}, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if p.PriceFull < 0 && p.PriceFull != PriceNotSet {
		return Snapshot{}, &ValidationError{Field: "priceFull", Reason: "must not be negative"}
	}
	if p.PriceCurr < 0 && p.PriceCurr != PriceNotSet {
		return Snapshot{}, &ValidationError{Field: "priceCurr", Reason: "must not be negative"}
	}
	if p.LocationID < 0 {
		return Snapshot{}, &ValidationError{Field: "locationId", Reason: "must not be negative"}
	}

	priceFull, priceCurr := p.PriceFull, p.PriceCurr
	switch {
	case priceFull == PriceNotSet && priceCurr == PriceNotSet:
		priceFull, priceCurr = 0, 0
	case priceCurr == PriceNotSet:
		priceCurr = priceFull
	case priceFull == PriceNotSet:
		priceFull = priceCurr
	}

	picURL := p.PicURL
	if picURL == "" {
		picURL = DefaultPicURL
	}

	timestamp := p.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return Snapshot{
		ProductID:    p.ProductID,
		Name:         p.Name,
		Category:     p.Category,
		IsVegetarian: p.IsVegetarian,
		IsGlutenFree: p.IsGlutenFree,
		Quantity:     p.Quantity,
		PriceFull:    priceFull,
		PriceCurr:    priceCurr,
		PicURL:       picURL,
		LocationID:   p.LocationID,
		LocationName: p.LocationName,
		Timestamp:    timestamp,
	}, nil
}

// NameNorm returns the lowercase, diacritics-stripped form of the name.
func (s Snapshot) NameNorm() string {
	return Normalize(s.Name)
}

// CategoryNorm returns the lowercase, diacritics-stripped form of the category.
func (s Snapshot) CategoryNorm() string {
	return Normalize(s.Category)
}

// LocationNameNorm returns the lowercase, diacritics-stripped form of the
// location name.
func (s Snapshot) LocationNameNorm() string {
	return Normalize(s.LocationName)
}

// IsAvailable reports whether the product has any items in stock.
func (s Snapshot) IsAvailable() bool {
	return s.Quantity != 0
}

// IsSoldOut reports whether the product stock is depleted.
func (s Snapshot) IsSoldOut() bool {
	return s.Quantity == 0
}

// IsLastPiece reports whether exactly one item is left in stock.
func (s Snapshot) IsLastPiece() bool {
	return s.Quantity == 1
}

// IsOnSale reports whether the current selling price is below the full price.
func (s Snapshot) IsOnSale() bool {
	return s.PriceCurr < s.PriceFull
}

// DiscountRate returns the discount rate in <0; 1>, rounded to two decimals.
// Products with a zero full price or a current price above the full price
// report a zero rate.
func (s Snapshot) DiscountRate() float64 {
	if s.PriceFull == 0 || s.PriceFull < s.PriceCurr {
		return 0
	}
	return math.Round((s.PriceFull-s.PriceCurr)/s.PriceFull*100) / 100
}

// IsNewerThan reports whether this snapshot was observed strictly later than
// the other one. Equal timestamps are not newer.
func (s Snapshot) IsNewerThan(other Snapshot) bool {
	return s.Timestamp.After(other.Timestamp)
}
