// Package page orchestrates the watch cycle of product listings: fetching
// markup, short-circuiting on unchanged fingerprints, parsing, reconciling
// against the last catalog and dispatching the change events. A Page covers
// one location; a Hub fans subscriptions, side-channel extras and update
// cycles out over many locations sharing one fetch client.
package page
