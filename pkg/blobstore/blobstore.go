// Package blobstore provides named-JSON-blob persistence. The engine
// treats persistence as "load a named blob / save a named blob"; blob
// contents are always written whole so a reader never observes a
// half-written collection.
package blobstore

import "errors"

// ErrBlobNotFound is returned when a named blob does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// Store persists named blobs of JSON.
type Store interface {
	// Load returns the blob's contents, or ErrBlobNotFound.
	Load(name string) ([]byte, error)

	// Save writes the blob atomically, replacing any previous contents.
	Save(name string, data []byte) error

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(name string) error
}
