package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freshpoint-watch/feature/reconcile"
)

// Handler processes one dispatched event. The ctx argument is the dispatch
// context and is cancelled together with the surrounding update cycle; the
// event context carries the event data.
type Handler func(ctx context.Context, event *Context) error

// SubscribeOptions control how a handler is registered.
type SubscribeOptions struct {
	// Blocking runs the handler inline on the dispatch path, delaying
	// further handler starts until it returns. Non-blocking handlers run on
	// their own goroutine.
	Blocking bool
	// Safe contains a handler failure: it is logged and does not stop the
	// remaining handlers of the event. An unsafe blocking handler failure
	// aborts the not-yet-started handlers and surfaces to the dispatcher's
	// caller.
	Safe bool
	// OnDone, if set, is called exactly once after each invocation of the
	// handler completes, successfully or not.
	OnDone func(*Invocation)
}

// Options control one dispatch call.
type Options struct {
	// Silent suppresses handler invocation entirely; the dispatch succeeds
	// as if no handler were subscribed.
	Silent bool
	// Extras is the side-channel data exposed to handlers through the event
	// context.
	Extras map[string]any
}

// registration is one row of the subscription table.
type registration struct {
	id         uuid.UUID
	handlerKey uintptr
	handler    Handler
	kind       reconcile.EventKind
	blocking   bool
	safe       bool
	onDone     func(*Invocation)
}

// Dispatcher owns the subscription table and fans dispatched events out to
// the matching handlers.
//
// The table is guarded by a mutex; a dispatch snapshots the matching
// registrations at fan-out time, so concurrent subscribe and unsubscribe
// calls never affect an already-started dispatch.
type Dispatcher struct {
	mu      sync.Mutex
	regs    []registration
	pending sync.WaitGroup
	log     *zap.Logger
}

// NewDispatcher creates an empty dispatcher. A nil logger disables logging.
func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{log: log}
}

// Subscribe registers a handler for the given event kind; reconcile.KindAny
// subscribes it to every kind. Subscribing the same handler to the same kind
// twice is a no-op, so re-subscription cannot cause duplicate invocations.
func (d *Dispatcher) Subscribe(handler Handler, kind reconcile.EventKind, opts SubscribeOptions) {
	if handler == nil {
		return
	}
	key := handlerKey(handler)

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, reg := range d.regs {
		if reg.handlerKey == key && reg.kind == kind {
			return
		}
	}
	d.regs = append(d.regs, registration{
		id:         uuid.New(),
		handlerKey: key,
		handler:    handler,
		kind:       kind,
		blocking:   opts.Blocking,
		safe:       opts.Safe,
		onDone:     opts.OnDone,
	})
}

// Unsubscribe removes matching registrations. A nil handler matches every
// handler; an empty kind matches every kind, the wildcard included. Nothing
// matching is not an error.
func (d *Dispatcher) Unsubscribe(handler Handler, kind reconcile.EventKind) {
	var key uintptr
	if handler != nil {
		key = handlerKey(handler)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.regs[:0]
	for _, reg := range d.regs {
		if (handler == nil || reg.handlerKey == key) && (kind == "" || reg.kind == kind) {
			continue
		}
		kept = append(kept, reg)
	}
	d.regs = kept
}

// Subscriptions returns the number of active registrations.
func (d *Dispatcher) Subscriptions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.regs)
}

// Dispatch fans the event out to every handler subscribed to its kind or to
// the wildcard, in subscription order. Blocking handlers run inline;
// non-blocking ones are started on their own goroutine and tracked until
// AwaitPending. An unsafe blocking handler failure aborts the remaining
// not-yet-started handlers and is returned; handlers already running
// concurrently are not cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, event reconcile.Event, opts Options) error {
	if opts.Silent {
		return nil
	}

	matching := d.snapshotRegistrations(event.Kind)
	if len(matching) == 0 {
		return nil
	}

	eventContext := NewContext(event, opts.Extras)
	for _, reg := range matching {
		if reg.blocking {
			if err := d.invokeTracked(ctx, reg, event, eventContext); err != nil {
				if reg.safe {
					d.logFailure(reg, event, err)
					continue
				}
				return fmt.Errorf("handler %s failed: %w", handlerName(reg.handler), err)
			}
			continue
		}

		d.pending.Add(1)
		go func(reg registration) {
			defer d.pending.Done()
			if err := d.invoke(ctx, reg, event, eventContext); err != nil {
				// A concurrent handler has nobody to propagate to; unsafe
				// failures are reported at error level instead.
				d.logFailure(reg, event, err)
			}
		}(reg)
	}
	return nil
}

// AwaitPending blocks until every in-flight handler invocation has
// completed. It returns immediately when nothing is pending and is safe to
// call concurrently and repeatedly. The wait is abandoned, with the
// handlers left running, when the context is cancelled.
func (d *Dispatcher) AwaitPending(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// snapshotRegistrations copies the registrations matching the kind, in
// subscription order.
func (d *Dispatcher) snapshotRegistrations(kind reconcile.EventKind) []registration {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matching []registration
	for _, reg := range d.regs {
		if reg.kind == kind || reg.kind == reconcile.KindAny {
			matching = append(matching, reg)
		}
	}
	return matching
}

// invokeTracked runs a blocking handler while keeping it visible to
// AwaitPending callers in other goroutines.
func (d *Dispatcher) invokeTracked(ctx context.Context, reg registration, event reconcile.Event, eventContext *Context) error {
	d.pending.Add(1)
	defer d.pending.Done()
	return d.invoke(ctx, reg, event, eventContext)
}

// invoke runs one handler call, turning panics into errors, and fires the
// completion callback exactly once.
func (d *Dispatcher) invoke(ctx context.Context, reg registration, event reconcile.Event, eventContext *Context) error {
	invocation := &Invocation{
		ID:        uuid.New(),
		Handler:   handlerName(reg.handler),
		Kind:      event.Kind,
		ProductID: event.ProductID(),
		Started:   time.Now(),
	}
	invocation.Err = d.call(ctx, reg.handler, eventContext)
	invocation.Finished = time.Now()

	if reg.onDone != nil {
		d.notifyDone(reg, invocation)
	}
	return invocation.Err
}

// call executes the handler with panic recovery.
func (d *Dispatcher) call(ctx context.Context, handler Handler, eventContext *Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panicked: %v", recovered)
		}
	}()
	return handler(ctx, eventContext)
}

// notifyDone runs the completion callback synchronously. A panicking
// callback is reported but never corrupts dispatcher state.
func (d *Dispatcher) notifyDone(reg registration, invocation *Invocation) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.log.Error("Completion callback panicked",
				zap.String("handler", invocation.Handler),
				zap.Any("panic", recovered))
		}
	}()
	reg.onDone(invocation)
}

func (d *Dispatcher) logFailure(reg registration, event reconcile.Event, err error) {
	d.log.Error("Event handler failed",
		zap.String("handler", handlerName(reg.handler)),
		zap.String("kind", string(event.Kind)),
		zap.Int("productId", event.ProductID()),
		zap.Error(err))
}

// handlerKey derives the identity used for idempotent subscription. Two
// registrations of the same function value share a key.
func handlerKey(handler Handler) uintptr {
	return reflect.ValueOf(handler).Pointer()
}

func handlerName(handler Handler) string {
	fn := runtime.FuncForPC(reflect.ValueOf(handler).Pointer())
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}
