package page

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"freshpoint-watch/core/client"
	"freshpoint-watch/feature/dispatch"
	"freshpoint-watch/feature/reconcile"
)

// scanConcurrency caps the parallel page fetches of a location scan.
const scanConcurrency = 8

// hubSubscription remembers a hub-level registration so it can be applied
// to pages added later.
type hubSubscription struct {
	handler dispatch.Handler
	kind    reconcile.EventKind
	opts    dispatch.SubscribeOptions
}

// Hub manages the pages of multiple locations behind one shared fetch
// client. Hub-level subscriptions and side-channel extras apply to every
// page, present and future; hub extras override page extras on key
// collision.
type Hub struct {
	client client.Client
	log    *zap.Logger

	mu     sync.RWMutex
	pages  map[int]*Page
	subs   []hubSubscription
	extras map[string]any
}

// NewHub creates an empty hub around the shared fetch client. A nil logger
// disables logging.
func NewHub(fetchClient client.Client, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		client: fetchClient,
		log:    log,
		pages:  make(map[int]*Page),
		extras: make(map[string]any),
	}
}

// NewPage creates and registers a page for the given location, applying the
// hub's subscriptions and extras. An already registered location returns
// the existing page.
func (h *Hub) NewPage(locationID int) *Page {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.pages[locationID]; ok {
		return existing
	}
	p := NewPage(locationID, h.client, h.log)
	h.register(p)
	return p
}

// AddPage registers an externally built page, applying the hub's
// subscriptions and extras. A page for an already registered location is
// ignored.
func (h *Hub) AddPage(p *Page) {
	if p == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.pages[p.LocationID()]; ok {
		return
	}
	h.register(p)
}

// register must run with the hub lock held.
func (h *Hub) register(p *Page) {
	for _, sub := range h.subs {
		p.Subscribe(sub.handler, sub.kind, sub.opts)
	}
	for key, value := range h.extras {
		p.SetExtra(key, value)
	}
	h.pages[p.LocationID()] = p
}

// Page returns the registered page of the given location.
func (h *Hub) Page(locationID int) (*Page, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.pages[locationID]
	return p, ok
}

// Pages returns the registered pages ordered by location identity.
func (h *Hub) Pages() []*Page {
	h.mu.RLock()
	defer h.mu.RUnlock()
	pages := make([]*Page, 0, len(h.pages))
	for _, p := range h.pages {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].LocationID() < pages[j].LocationID()
	})
	return pages
}

// RemovePage unregisters the page of the given location and, when
// awaitHandlers is set, waits for its in-flight handlers. The removed page
// is returned for further standalone use.
func (h *Hub) RemovePage(ctx context.Context, locationID int, awaitHandlers bool) (*Page, error) {
	h.mu.Lock()
	p, ok := h.pages[locationID]
	delete(h.pages, locationID)
	h.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("page not found: %d", locationID)
	}
	if awaitHandlers {
		if err := p.AwaitHandlers(ctx); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Subscribe registers a handler on every page, present and future.
func (h *Hub) Subscribe(handler dispatch.Handler, kind reconcile.EventKind, opts dispatch.SubscribeOptions) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, hubSubscription{handler: handler, kind: kind, opts: opts})
	for _, p := range h.pages {
		p.Subscribe(handler, kind, opts)
	}
}

// Unsubscribe removes matching handler registrations from every page.
func (h *Hub) Unsubscribe(handler dispatch.Handler, kind reconcile.EventKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.subs[:0]
	for _, sub := range h.subs {
		if (handler == nil || sameHandler(sub.handler, handler)) && (kind == "" || sub.kind == kind) {
			continue
		}
		kept = append(kept, sub)
	}
	h.subs = kept
	for _, p := range h.pages {
		p.Unsubscribe(handler, kind)
	}
}

// SetExtra attaches a side-channel value on the hub and every registered
// page, overriding page-level values under the same key.
func (h *Hub) SetExtra(key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.extras[key] = value
	for _, p := range h.pages {
		p.SetExtra(key, value)
	}
}

// DeleteExtra removes a side-channel value from the hub and every page.
func (h *Hub) DeleteExtra(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.extras, key)
	for _, p := range h.pages {
		p.DeleteExtra(key)
	}
}

// UpdateAll updates every registered page concurrently and returns the
// first failure, letting the remaining updates finish.
func (h *Hub) UpdateAll(ctx context.Context) error {
	return h.updateAll(ctx, func(ctx context.Context, p *Page) error {
		return p.Update(ctx)
	})
}

// UpdateAllSilently refreshes every registered page without invoking
// handlers.
func (h *Hub) UpdateAllSilently(ctx context.Context) error {
	return h.updateAll(ctx, func(ctx context.Context, p *Page) error {
		return p.UpdateSilently(ctx)
	})
}

// updateAll runs the update on every page on an errgroup without a derived
// context, so one failing page never cancels its siblings.
func (h *Hub) updateAll(ctx context.Context, update func(context.Context, *Page) error) error {
	var group errgroup.Group
	for _, p := range h.Pages() {
		p := p
		group.Go(func() error {
			return update(ctx, p)
		})
	}
	return group.Wait()
}

// Scan probes the location identities in [start, stop) and registers a page
// for every location that currently lists products. Already registered
// pages are kept regardless of their state.
func (h *Hub) Scan(ctx context.Context, start, stop int) error {
	var candidates []*Page
	h.mu.RLock()
	for locationID := start; locationID < stop; locationID++ {
		if _, exists := h.pages[locationID]; exists {
			continue
		}
		candidates = append(candidates, NewPage(locationID, h.client, h.log))
	}
	h.mu.RUnlock()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(scanConcurrency)
	for _, candidate := range candidates {
		candidate := candidate
		group.Go(func() error {
			if err := candidate.UpdateSilently(groupCtx); err != nil {
				// Probing unknown locations routinely hits missing pages.
				h.log.Debug("Scan probe failed",
					zap.Int("locationId", candidate.LocationID()),
					zap.Error(err))
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	registered := 0
	for _, candidate := range candidates {
		if candidate.Catalog().Len() == 0 {
			continue
		}
		h.AddPage(candidate)
		registered++
	}
	h.log.Info("Location scan finished",
		zap.Int("probed", len(candidates)),
		zap.Int("registered", registered))
	return ctx.Err()
}

// UpdateForever polls every registered page until the context is
// cancelled; see Page.UpdateForever.
func (h *Hub) UpdateForever(ctx context.Context, interval time.Duration, awaitHandlers bool) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, p := range h.Pages() {
		p := p
		group.Go(func() error {
			return p.UpdateForever(groupCtx, interval, awaitHandlers)
		})
	}
	return group.Wait()
}

// sameHandler compares handlers by function identity, mirroring the
// dispatcher's idempotency rule.
func sameHandler(a, b dispatch.Handler) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// AwaitHandlers blocks until the in-flight handlers of every registered
// page have completed.
func (h *Hub) AwaitHandlers(ctx context.Context) error {
	for _, p := range h.Pages() {
		if err := p.AwaitHandlers(ctx); err != nil {
			return err
		}
	}
	return nil
}
