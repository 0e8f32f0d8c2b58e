// Package client fetches FreshPoint product page markup over HTTP.
//
// The client knows nothing about the page structure; it returns raw markup
// and its content fingerprint building block (see Fingerprint). Parsing is
// the job of core/parser, change detection the job of feature/reconcile.
package client
