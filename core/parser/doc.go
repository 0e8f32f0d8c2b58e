// Package parser extracts product snapshots from the HTML markup of a
// FreshPoint product list page. Parsing is tolerant at the record level:
// a malformed product entry is skipped and reported, while a page missing
// its location identity or name fails as a whole.
package parser
