// Package reconcile computes the ordered change events between two catalogs
// of the same location. Each surviving product with an observable change
// yields a generic change event followed by the specific quantity, price and
// metadata events, so handlers can rely on generic-before-specific delivery.
package reconcile
