// Package repository contains data access abstractions for document records.
// Implementations live in subpackages (mongodb, postgres); no business logic
// belongs here.
package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"liftdocs/internal/model"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("document not found")

// DocumentRepository defines persistence operations for document records.
type DocumentRepository interface {
	// Insert stores a new record. The record's ID must already be set by the
	// caller; the same id is echoed back on success.
	Insert(ctx context.Context, doc *model.Document) (primitive.ObjectID, error)

	// Find returns up to limit records matching f, ordered by id ascending.
	// A limit of 0 or less means no explicit bound.
	Find(ctx context.Context, f Filter, limit int64) ([]model.Document, error)

	// FindByID returns the record with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Document, error)
}
