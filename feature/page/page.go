package page

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"freshpoint-watch/core/client"
	"freshpoint-watch/core/logger"
	"freshpoint-watch/core/parser"
	"freshpoint-watch/feature/dispatch"
	"freshpoint-watch/feature/product"
	"freshpoint-watch/feature/reconcile"
)

// Page tracks the product listing of one location. Each update cycle
// fetches the page markup, short-circuits on an unchanged fingerprint,
// parses the products, reconciles them against the last catalog and
// dispatches the resulting events.
type Page struct {
	locationID int
	client     client.Client
	dispatcher *dispatch.Dispatcher
	log        *zap.Logger

	mu      sync.RWMutex
	catalog *product.Catalog
	extras  map[string]any
}

// NewPage creates a page watcher for the given location. A nil logger
// disables logging.
func NewPage(locationID int, fetchClient client.Client, log *zap.Logger) *Page {
	if log == nil {
		log = zap.NewNop()
	}
	return &Page{
		locationID: locationID,
		client:     fetchClient,
		dispatcher: dispatch.NewDispatcher(log),
		log:        logger.WithLocation(log, locationID),
		catalog:    product.NewCatalog(locationID),
		extras:     make(map[string]any),
	}
}

// LocationID returns the identity of the watched location.
func (p *Page) LocationID() int {
	return p.locationID
}

// URL returns the address of the watched product listing.
func (p *Page) URL() string {
	return p.client.PageURL(p.locationID)
}

// Catalog returns the current catalog. Catalogs are replaced wholesale on
// update, so the returned value stays stable while held.
func (p *Page) Catalog() *product.Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.catalog
}

// Restore seeds the page with a previously persisted catalog without
// dispatching any events. The next update reconciles against the restored
// state.
func (p *Page) Restore(catalog *product.Catalog) {
	if catalog == nil || catalog.LocationID() != p.locationID {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalog = catalog
}

// SetExtra attaches a side-channel value visible to handlers of every
// subsequently dispatched event.
func (p *Page) SetExtra(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extras[key] = value
}

// DeleteExtra removes a side-channel value.
func (p *Page) DeleteExtra(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.extras, key)
}

// Subscribe registers an event handler; see dispatch.Dispatcher.Subscribe.
func (p *Page) Subscribe(handler dispatch.Handler, kind reconcile.EventKind, opts dispatch.SubscribeOptions) {
	p.dispatcher.Subscribe(handler, kind, opts)
}

// Unsubscribe removes matching handler registrations.
func (p *Page) Unsubscribe(handler dispatch.Handler, kind reconcile.EventKind) {
	p.dispatcher.Unsubscribe(handler, kind)
}

// Update runs one fetch-parse-reconcile-dispatch cycle. An unchanged page
// fingerprint skips the cycle early. The catalog is replaced before any
// handler runs, so a handler failure never corrupts the observed state.
func (p *Page) Update(ctx context.Context) error {
	return p.update(ctx, false)
}

// UpdateSilently refreshes the catalog without invoking any handler. The
// state effect is identical to Update with no subscriptions.
func (p *Page) UpdateSilently(ctx context.Context) error {
	return p.update(ctx, true)
}

func (p *Page) update(ctx context.Context, silent bool) error {
	contents, err := p.client.Fetch(ctx, p.locationID)
	if err != nil {
		return fmt.Errorf("failed to fetch page %d: %w", p.locationID, err)
	}

	fingerprint := client.Fingerprint(contents)
	if fingerprint == p.Catalog().Fingerprint() {
		p.log.Debug("Page contents unchanged")
		return nil
	}

	parsed, err := parser.Parse(contents, time.Now())
	if err != nil {
		return fmt.Errorf("failed to parse page %d: %w", p.locationID, err)
	}
	for _, rejected := range parsed.Rejected() {
		p.log.Warn("Skipped malformed product entry", zap.Error(rejected))
	}

	next := product.BuildCatalog(p.locationID, fingerprint, parsed.Snapshots())

	p.mu.Lock()
	previous := p.catalog
	p.catalog = next
	extras := make(map[string]any, len(p.extras))
	for key, value := range p.extras {
		extras[key] = value
	}
	p.mu.Unlock()

	events := reconcile.Reconcile(previous, next)
	p.log.Debug("Page updated",
		zap.Int("products", next.Len()),
		zap.Int("events", len(events)))

	for _, event := range events {
		opts := dispatch.Options{Silent: silent, Extras: extras}
		if err := p.dispatcher.Dispatch(ctx, event, opts); err != nil {
			return fmt.Errorf("failed to dispatch %s for page %d: %w", event.Kind, p.locationID, err)
		}
	}
	return nil
}

// UpdateForever polls the page every interval until the context is
// cancelled. Update failures are logged and the polling continues;
// cancellation takes effect between cycles, never mid-dispatch. When
// awaitHandlers is set, each cycle waits for its handlers before the next
// one is scheduled.
func (p *Page) UpdateForever(ctx context.Context, interval time.Duration, awaitHandlers bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.Update(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("Page update failed", zap.Error(err))
		}
		if awaitHandlers {
			if err := p.AwaitHandlers(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// AwaitHandlers blocks until every in-flight event handler has completed.
func (p *Page) AwaitHandlers(ctx context.Context) error {
	return p.dispatcher.AwaitPending(ctx)
}

// Find returns the first cataloged product satisfying all constraints.
func (p *Page) Find(constraints ...product.Constraint) (product.Snapshot, bool) {
	return p.Catalog().Find(constraints...)
}

// FindAll returns every cataloged product satisfying all constraints.
func (p *Page) FindAll(constraints ...product.Constraint) []product.Snapshot {
	return p.Catalog().FindAll(constraints...)
}
