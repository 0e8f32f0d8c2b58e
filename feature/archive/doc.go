// Package archive keeps a history of observed catalog states in object
// storage, one JSON object per location and page fingerprint.
package archive
