package status

import (
	"context"

	"go.uber.org/zap"

	"freshpoint-watch/feature/history"
	"freshpoint-watch/feature/page"
	"freshpoint-watch/feature/product"
)

// LocationStatus is the reported state of one watched location.
type LocationStatus struct {
	LocationID   int    `json:"locationId"`
	LocationName string `json:"locationName"`
	URL          string `json:"url"`
	Products     int    `json:"products"`
	Fingerprint  string `json:"fingerprint"`
}

// ProductFilter narrows a product listing query.
type ProductFilter struct {
	Name       string
	Category   string
	Available  bool
	OnSale     bool
	Vegetarian bool
	GlutenFree bool
}

// Service answers status queries over the watched pages and the optional
// event history.
type Service struct {
	hub      *page.Hub
	recorder *history.Recorder
	logger   *zap.Logger
}

// NewService creates the status service. The recorder may be nil when no
// history database is connected.
func NewService(hub *page.Hub, recorder *history.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{hub: hub, recorder: recorder, logger: logger}
}

// Locations reports every watched location ordered by identity.
func (s *Service) Locations() []LocationStatus {
	pages := s.hub.Pages()
	statuses := make([]LocationStatus, 0, len(pages))
	for _, p := range pages {
		catalog := p.Catalog()
		statuses = append(statuses, LocationStatus{
			LocationID:   p.LocationID(),
			LocationName: catalog.LocationName(),
			URL:          p.URL(),
			Products:     catalog.Len(),
			Fingerprint:  catalog.Fingerprint(),
		})
	}
	return statuses
}

// Products lists the products of one watched location, narrowed by the
// filter. The second return value is false for an unwatched location.
func (s *Service) Products(locationID int, filter ProductFilter) ([]product.Snapshot, bool) {
	p, ok := s.hub.Page(locationID)
	if !ok {
		return nil, false
	}

	var constraints []product.Constraint
	if filter.Name != "" {
		constraints = append(constraints, product.WithName(filter.Name))
	}
	if filter.Category != "" {
		constraints = append(constraints, product.WithCategory(filter.Category))
	}
	if filter.Available {
		constraints = append(constraints, product.Available())
	}
	if filter.OnSale {
		constraints = append(constraints, product.OnSale())
	}
	if filter.Vegetarian {
		constraints = append(constraints, product.Vegetarian(true))
	}
	if filter.GlutenFree {
		constraints = append(constraints, product.GlutenFree(true))
	}
	return p.FindAll(constraints...), true
}

// HistoryEnabled reports whether the event history is available.
func (s *Service) HistoryEnabled() bool {
	return s.recorder != nil
}

// History returns the recent recorded events of a location.
func (s *Service) History(ctx context.Context, locationID, limit int) ([]history.EventRecord, error) {
	return s.recorder.Recent(ctx, locationID, limit)
}
