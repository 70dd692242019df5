// Package mongodb implements repository.DocumentRepository on a MongoDB
// collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"liftdocs/internal/model"
	"liftdocs/internal/repository"
)

// DocumentMongo stores document records in a single collection.
type DocumentMongo struct {
	col *mongo.Collection
}

// NewDocumentMongo creates a repository backed by col.
func NewDocumentMongo(col *mongo.Collection) *DocumentMongo {
	return &DocumentMongo{col: col}
}

var _ repository.DocumentRepository = (*DocumentMongo)(nil)

// EnsureIndexes creates the indexes the repository relies on. Stored blob
// names are unique per document, and brand is the most common filter.
func (r *DocumentMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "filename", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "brand", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create document indexes: %w", err)
	}
	return nil
}

// Insert stores a new record under the id already set on doc.
func (r *DocumentMongo) Insert(ctx context.Context, doc *model.Document) (primitive.ObjectID, error) {
	if doc.ID.IsZero() {
		return primitive.NilObjectID, errors.New("document id must be set before insert")
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert document: %w", err)
	}
	return doc.ID, nil
}

// Find returns records matching f ordered by id ascending, which for
// ObjectIDs is creation order.
func (r *DocumentMongo) Find(ctx context.Context, f repository.Filter, limit int64) ([]model.Document, error) {
	query, err := compileFilter(f)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}

	docs := make([]model.Document, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return docs, nil
}

// FindByID returns the record with the given id.
func (r *DocumentMongo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Document, error) {
	var doc model.Document
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find document %s: %w", id.Hex(), err)
	}
	return &doc, nil
}
