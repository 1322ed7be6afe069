package repository

import (
	"context"
	"errors"

	"docvault/internal/model"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidStatus is returned by SetStatus for values other than approved/rejected.
	ErrInvalidStatus = errors.New("invalid document status")
)

// Predicate reports whether a document belongs to a result set.
// Implementations must be pure and must not modify d.
type Predicate func(d *model.Document) bool

// DocumentRepository defines data access for document records.
// No business logic here beyond the record lifecycle (versioning and history).
type DocumentRepository interface {
	// Create assigns a new id, version 1, pending status and the initial
	// history entry, then stores the record.
	// File attributes and metadata are taken from doc; UploadedBy is the actor.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns all documents matching pred in insertion order. A nil pred matches everything.
	List(ctx context.Context, pred Predicate) ([]model.Document, error)

	// Update merges upd onto the record, increments the version and prepends
	// a "Metadata updated" history entry attributed to actor.
	Update(ctx context.Context, id string, upd model.DocumentUpdate, actor string) (*model.Document, error)

	// SetStatus changes the approval status. Version and history are untouched.
	SetStatus(ctx context.Context, id string, status model.Status) (*model.Document, error)

	// Delete removes the record and returns its stored blob name.
	Delete(ctx context.Context, id string) (string, error)
}
