package history

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"freshpoint-watch/feature/dispatch"
)

// Recorder appends every dispatched product event to the history database.
// It plugs into the dispatcher as an ordinary safe handler, so a database
// outage degrades to logged errors without disturbing the update cycle.
type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRecorder creates a recorder on top of an established connection. A nil
// logger disables logging.
func NewRecorder(db *gorm.DB, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{db: db, log: log}
}

// Migrate creates or updates the history schema.
func (r *Recorder) Migrate() error {
	if err := r.db.AutoMigrate(&EventRecord{}); err != nil {
		return fmt.Errorf("failed to migrate event history schema: %w", err)
	}
	return nil
}

// Handler returns the dispatch handler that persists events. It is meant to
// be subscribed to the wildcard kind with the safe error mode.
func (r *Recorder) Handler() dispatch.Handler {
	return func(ctx context.Context, event *dispatch.Context) error {
		record := r.buildRecord(event)
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record %s event for product %d: %w",
				record.Kind, record.ProductID, err)
		}
		r.log.Debug("Recorded product event",
			zap.String("kind", record.Kind),
			zap.Int("productId", record.ProductID))
		return nil
	}
}

func (r *Recorder) buildRecord(event *dispatch.Context) EventRecord {
	record := EventRecord{
		Kind:         string(event.Kind()),
		ProductID:    event.ProductID(),
		ProductName:  event.ProductName(),
		LocationID:   event.LocationID(),
		LocationName: event.LocationName(),
	}
	if old := event.Old(); old != nil {
		record.QuantityBefore = &old.Quantity
		record.PriceCurrBefore = &old.PriceCurr
		record.PriceFullBefore = &old.PriceFull
	}
	if new := event.New(); new != nil {
		record.QuantityAfter = &new.Quantity
		record.PriceCurrAfter = &new.PriceCurr
		record.PriceFullAfter = &new.PriceFull
	}
	if s := event.Snapshot(); s != nil {
		record.ObservedAt = s.Timestamp
	}
	return record
}

// Recent returns the newest recorded events of a location, newest first.
// A zero locationID returns events of every location.
func (r *Recorder) Recent(ctx context.Context, locationID, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if locationID != 0 {
		query = query.Where("location_id = ?", locationID)
	}
	var records []EventRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load event history: %w", err)
	}
	return records, nil
}
