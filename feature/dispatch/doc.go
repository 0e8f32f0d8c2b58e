// Package dispatch fans reconciled change events out to subscribed
// handlers.
//
// # Subscription table
//
// Handlers are registered per event kind or for the wildcard. The table
// keeps subscription order, which is also the handler start order within
// one event; completion order of concurrent handlers is unordered. A
// dispatch snapshots the matching registrations at fan-out time, so the
// table can be mutated concurrently with an in-flight dispatch.
//
// # Call and error modes
//
// A blocking registration runs on the dispatch path; a non-blocking one
// runs on its own goroutine. Safe registrations have failures (errors and
// recovered panics) logged and contained; an unsafe blocking failure
// surfaces to the dispatcher's caller and stops the not-yet-started
// handlers of that event. Completion callbacks fire exactly once per
// invocation with the invocation handle. AwaitPending joins every
// in-flight invocation, typically on shutdown.
package dispatch
