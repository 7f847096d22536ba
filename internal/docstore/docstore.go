// Package docstore defines the document store capability every persistence
// backend implements: collections of schemaless documents addressed by
// top-level field equality.
//
// Documents are encoded with BSON regardless of the backend, so record types
// only need `bson` struct tags. Each document carries a string "_id".
package docstore

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// IDField is the document identifier field name.
const IDField = "_id"

var (
	// ErrNotFound is returned by FindOne when no document matches the filter.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrMalformedDocument is matched by MalformedDocumentError.
	ErrMalformedDocument = errors.New("malformed document")
)

// Filter selects documents whose top-level fields equal the given values.
// A nil or empty filter matches every document in the collection.
type Filter map[string]any

// Patch lists top-level fields to overwrite on update.
type Patch map[string]any

// Sort orders FindMany results by a single top-level field.
// The zero value keeps insertion order.
type Sort struct {
	Field string
	Desc  bool
}

// UpdateResult reports the outcome of Update.
type UpdateResult struct {
	// Matched is the number of documents the filter selected (0 or 1).
	Matched int64
	// Upserted is true when no document matched and a new one was inserted.
	Upserted bool
}

// Store is the generic create/read/update capability over named collections.
type Store interface {
	// Create inserts doc and returns its identifier. A fresh identifier is
	// assigned when doc has no "_id".
	Create(ctx context.Context, collection string, doc any) (string, error)
	// FindOne decodes the first document matching filter into out.
	FindOne(ctx context.Context, collection string, filter Filter, out any) error
	// FindMany decodes all documents matching filter into out, which must be
	// a pointer to a slice.
	FindMany(ctx context.Context, collection string, filter Filter, sort Sort, out any) error
	// Update overwrites the patch fields on the first document matching
	// filter. With upsert, a document built from filter and patch is inserted
	// when nothing matches.
	Update(ctx context.Context, collection string, filter Filter, patch Patch, upsert bool) (UpdateResult, error)
	// EnsureIndex creates an index on a top-level field if it does not exist.
	EnsureIndex(ctx context.Context, collection, field string, unique bool) error
	// Ping checks connectivity with the backend.
	Ping(ctx context.Context) error
}

// MalformedDocumentError reports a persisted document that failed validation
// when read back.
type MalformedDocumentError struct {
	Collection string
	ID         string
	Err        error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed %s document %q: %v", e.Collection, e.ID, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedDocument.
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}
