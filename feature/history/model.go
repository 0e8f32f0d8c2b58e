package history

import "time"

// EventRecord is one persisted product event row.
type EventRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Kind         string `gorm:"size:32;index"`
	ProductID    int    `gorm:"index"`
	ProductName  string `gorm:"size:255"`
	LocationID   int    `gorm:"index"`
	LocationName string `gorm:"size:255"`

	QuantityBefore  *int
	QuantityAfter   *int
	PriceCurrBefore *float64
	PriceCurrAfter  *float64
	PriceFullBefore *float64
	PriceFullAfter  *float64

	// ObservedAt is the timestamp of the snapshot that triggered the event.
	ObservedAt time.Time
	// CreatedAt is set by GORM when the row is inserted.
	CreatedAt time.Time
}

// TableName pins the table name independent of GORM's pluralization.
func (EventRecord) TableName() string {
	return "product_events"
}
