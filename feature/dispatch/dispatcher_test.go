package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshpoint-watch/feature/product"
	"freshpoint-watch/feature/reconcile"
)

func addedEvent(productID int) reconcile.Event {
	s := product.Snapshot{
		ProductID:    productID,
		Name:         "Povidlové buchty",
		Quantity:     4,
		PriceFull:    57.52,
		PriceCurr:    40.26,
		LocationID:   296,
		LocationName: "Main Office",
		Timestamp:    time.Now(),
	}
	return reconcile.Event{Kind: reconcile.KindAdded, New: &s}
}

func TestSubscribeIdempotent(t *testing.T) {
	d := NewDispatcher(nil)
	var calls atomic.Int32
	handler := func(ctx context.Context, event *Context) error {
		calls.Add(1)
		return nil
	}

	d.Subscribe(handler, reconcile.KindAdded, SubscribeOptions{Blocking: true, Safe: true})
	d.Subscribe(handler, reconcile.KindAdded, SubscribeOptions{Blocking: true, Safe: true})
	assert.Equal(t, 1, d.Subscriptions())

	require.NoError(t, d.Dispatch(context.Background(), addedEvent(1), Options{}))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatchOrderFollowsSubscriptionOrder(t *testing.T) {
	d := NewDispatcher(nil)
	var order []string
	first := func(ctx context.Context, event *Context) error {
		order = append(order, "first")
		return nil
	}
	second := func(ctx context.Context, event *Context) error {
		order = append(order, "second")
		return nil
	}

	d.Subscribe(first, reconcile.KindAdded, SubscribeOptions{Blocking: true})
	d.Subscribe(second, reconcile.KindAny, SubscribeOptions{Blocking: true})

	require.NoError(t, d.Dispatch(context.Background(), addedEvent(1), Options{}))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestWildcardReceivesEveryKind(t *testing.T) {
	d := NewDispatcher(nil)
	var calls atomic.Int32
	d.Subscribe(func(ctx context.Context, event *Context) error {
		calls.Add(1)
		return nil
	}, reconcile.KindAny, SubscribeOptions{Blocking: true})

	old := addedEvent(1).New
	for _, kind := range reconcile.Kinds() {
		event := reconcile.Event{Kind: kind, Old: old, New: old}
		require.NoError(t, d.Dispatch(context.Background(), event, Options{}))
	}
	assert.Equal(t, int32(len(reconcile.Kinds())), calls.Load())
}

func TestSilentDispatchInvokesNothing(t *testing.T) {
	d := NewDispatcher(nil)
	var calls atomic.Int32
	d.Subscribe(func(ctx context.Context, event *Context) error {
		calls.Add(1)
		return nil
	}, reconcile.KindAny, SubscribeOptions{Blocking: true})

	require.NoError(t, d.Dispatch(context.Background(), addedEvent(1), Options{Silent: true}))
	require.NoError(t, d.AwaitPending(context.Background()))
	assert.Zero(t, calls.Load())
}

func TestSafeHandlerFailureIsContained(t *testing.T) {
	d := NewDispatcher(nil)
	var done []*Invocation
	var mu sync.Mutex

	failing := func(ctx context.Context, event *Context) error {
		panic("always fails")
	}
	var reached atomic.Int32
	following := func(ctx context.Context, event *Context) error {
		reached.Add(1)
		return nil
	}

	d.Subscribe(failing, reconcile.KindAny, SubscribeOptions{
		Safe: true,
		OnDone: func(invocation *Invocation) {
			mu.Lock()
			done = append(done, invocation)
			mu.Unlock()
		},
	})
	d.Subscribe(following, reconcile.KindAdded, SubscribeOptions{Blocking: true, Safe: true})

	require.NoError(t, d.Dispatch(context.Background(), addedEvent(1), Options{}))
	require.NoError(t, d.AwaitPending(context.Background()))

	// The failing handler never stops the following one, and its completion
	// callback fires exactly once.
	assert.Equal(t, int32(1), reached.Load())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, done, 1)
	assert.False(t, done[0].Succeeded())
	assert.ErrorContains(t, done[0].Err, "always fails")
	assert.Equal(t, reconcile.KindAdded, done[0].Kind)
	assert.Equal(t, 1, done[0].ProductID)
}

func TestUnsafeBlockingFailureAbortsRemaining(t *testing.T) {
	d := NewDispatcher(nil)
	failure := errors.New("broken")
	var reached atomic.Int32

	d.Subscribe(func(ctx context.Context, event *Context) error {
		return failure
	}, reconcile.KindAdded, SubscribeOptions{Blocking: true})
	d.Subscribe(func(ctx context.Context, event *Context) error {
		reached.Add(1)
		return nil
	}, reconcile.KindAdded, SubscribeOptions{Blocking: true, Safe: true})

	err := d.Dispatch(context.Background(), addedEvent(1), Options{})
	assert.ErrorIs(t, err, failure)
	assert.Zero(t, reached.Load())
}

func TestNonBlockingHandlerDoesNotDelayDispatch(t *testing.T) {
	d := NewDispatcher(nil)
	release := make(chan struct{})
	var finished atomic.Bool

	d.Subscribe(func(ctx context.Context, event *Context) error {
		<-release
		finished.Store(true)
		return nil
	}, reconcile.KindAdded, SubscribeOptions{Safe: true})

	// Dispatch returns while the handler is still parked.
	require.NoError(t, d.Dispatch(context.Background(), addedEvent(1), Options{}))
	assert.False(t, finished.Load())

	close(release)
	require.NoError(t, d.AwaitPending(context.Background()))
	assert.True(t, finished.Load())
}

func TestAwaitPendingZeroPending(t *testing.T) {
	d := NewDispatcher(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.AwaitPending(ctx))
	// Repeated calls stay safe.
	assert.NoError(t, d.AwaitPending(ctx))
}

func TestAwaitPendingCancellation(t *testing.T) {
	d := NewDispatcher(nil)
	release := make(chan struct{})
	defer close(release)

	d.Subscribe(func(ctx context.Context, event *Context) error {
		<-release
		return nil
	}, reconcile.KindAdded, SubscribeOptions{Safe: true})
	require.NoError(t, d.Dispatch(context.Background(), addedEvent(1), Options{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.AwaitPending(ctx), context.DeadlineExceeded)
}

func TestUnsubscribeAllKindsOfHandler(t *testing.T) {
	d := NewDispatcher(nil)
	var calls atomic.Int32
	handler := func(ctx context.Context, event *Context) error {
		calls.Add(1)
		return nil
	}

	d.Subscribe(handler, reconcile.KindAdded, SubscribeOptions{Blocking: true})
	d.Subscribe(handler, reconcile.KindRemoved, SubscribeOptions{Blocking: true})
	require.Equal(t, 2, d.Subscriptions())

	d.Unsubscribe(handler, "")
	assert.Zero(t, d.Subscriptions())

	old := addedEvent(1).New
	require.NoError(t, d.Dispatch(context.Background(), addedEvent(1), Options{}))
	require.NoError(t, d.Dispatch(context.Background(), reconcile.Event{Kind: reconcile.KindRemoved, Old: old}, Options{}))
	assert.Zero(t, calls.Load())
}

func TestUnsubscribeByKind(t *testing.T) {
	d := NewDispatcher(nil)
	handler := func(ctx context.Context, event *Context) error { return nil }
	other := func(ctx context.Context, event *Context) error { return nil }

	d.Subscribe(handler, reconcile.KindAdded, SubscribeOptions{})
	d.Subscribe(other, reconcile.KindAdded, SubscribeOptions{})
	d.Subscribe(handler, reconcile.KindRemoved, SubscribeOptions{})

	// A nil handler matches every handler of the kind.
	d.Unsubscribe(nil, reconcile.KindAdded)
	assert.Equal(t, 1, d.Subscriptions())

	// Nothing matching is not an error.
	d.Unsubscribe(nil, reconcile.KindAdded)
	assert.Equal(t, 1, d.Subscriptions())
}

func TestOnDonePanicIsContained(t *testing.T) {
	d := NewDispatcher(nil)
	var calls atomic.Int32

	d.Subscribe(func(ctx context.Context, event *Context) error {
		return nil
	}, reconcile.KindAdded, SubscribeOptions{
		Blocking: true,
		Safe:     true,
		OnDone:   func(invocation *Invocation) { panic("bad callback") },
	})
	d.Subscribe(func(ctx context.Context, event *Context) error {
		calls.Add(1)
		return nil
	}, reconcile.KindAdded, SubscribeOptions{Blocking: true, Safe: true})

	require.NoError(t, d.Dispatch(context.Background(), addedEvent(1), Options{}))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubscribeDuringDispatchDoesNotAffectIt(t *testing.T) {
	d := NewDispatcher(nil)
	var lateCalls atomic.Int32
	late := func(ctx context.Context, event *Context) error {
		lateCalls.Add(1)
		return nil
	}

	d.Subscribe(func(ctx context.Context, event *Context) error {
		// Mutating the table mid-dispatch must not add the handler to the
		// already-started fan-out.
		d.Subscribe(late, reconcile.KindAdded, SubscribeOptions{Blocking: true})
		return nil
	}, reconcile.KindAdded, SubscribeOptions{Blocking: true})

	require.NoError(t, d.Dispatch(context.Background(), addedEvent(1), Options{}))
	assert.Zero(t, lateCalls.Load())

	require.NoError(t, d.Dispatch(context.Background(), addedEvent(2), Options{}))
	assert.Equal(t, int32(1), lateCalls.Load())
}
