// Package product models the FreshPoint product domain: point-in-time
// product snapshots, the catalog of one location's page, and the pure
// comparison primitives (field diff, price and stock comparison) that the
// reconciler builds change events from.
//
// # Identity
//
// ProductID together with LocationID uniquely determines which two snapshots
// describe "the same product" across time. Snapshots are immutable by
// convention; catalogs are replaced wholesale, never patched in place.
//
// # Wire format
//
// Snapshots and catalogs serialize to camelCase JSON and round-trip
// losslessly. MarshalFiltered supports dropping selected wire fields (for
// instance the picture reference) from persisted payloads.
package product
