package dispatch

import (
	"time"

	"github.com/google/uuid"

	"freshpoint-watch/feature/reconcile"
)

// Invocation is the handle of one completed handler call. It is passed to
// the registration's OnDone callback and records the outcome.
type Invocation struct {
	// ID uniquely identifies this invocation.
	ID uuid.UUID
	// Handler is the name of the invoked handler function.
	Handler string
	// Kind is the kind of the dispatched event.
	Kind reconcile.EventKind
	// ProductID is the product identity of the dispatched event.
	ProductID int
	// Started records when the handler call began.
	Started time.Time
	// Finished records when the handler call returned.
	Finished time.Time
	// Err is the handler failure, including recovered panics; nil on
	// success.
	Err error
}

// Succeeded reports whether the handler completed without an error.
func (i *Invocation) Succeeded() bool {
	return i.Err == nil
}

// Duration returns how long the handler call took.
func (i *Invocation) Duration() time.Duration {
	return i.Finished.Sub(i.Started)
}
