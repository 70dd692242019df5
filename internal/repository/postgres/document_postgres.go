// Package postgres implements repository.DocumentRepository on PostgreSQL
// using database/sql with parameterized queries only.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"liftdocs/internal/model"
	"liftdocs/internal/repository"
)

// documentColumns is the canonical column list shared by every query.
const documentColumns = `id, brand, title, description, content_type, size, filename, original_name, path, tags`

// DocumentPostgres stores document records in the documents table. Record ids
// are kept as their 24 character hex form, tags as a jsonb array.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Insert stores a new record under the id already set on doc.
func (r *DocumentPostgres) Insert(ctx context.Context, doc *model.Document) (primitive.ObjectID, error) {
	if doc.ID.IsZero() {
		return primitive.NilObjectID, errors.New("document id must be set before insert")
	}

	tags, err := marshalTags(doc.Tags)
	if err != nil {
		return primitive.NilObjectID, err
	}

	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.ExecContext(ctx, q,
		doc.ID.Hex(),
		doc.Brand,
		doc.Title,
		doc.Description,
		doc.ContentType,
		doc.Size,
		doc.StoredName,
		doc.OriginalName,
		doc.StorageLocation,
		tags,
	)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert document: %w", err)
	}
	return doc.ID, nil
}

// Find returns records matching f ordered by id ascending. Hex ObjectIDs are
// fixed width, so lexicographic order equals creation order.
func (r *DocumentPostgres) Find(ctx context.Context, f repository.Filter, limit int64) ([]model.Document, error) {
	b := &queryBuilder{}
	where, err := b.compile(f)
	if err != nil {
		return nil, err
	}

	q := `SELECT ` + documentColumns + ` FROM documents WHERE ` + where + ` ORDER BY id`
	if limit > 0 {
		q += " LIMIT " + b.bind(limit)
	}

	rows, err := r.db.QueryContext(ctx, q, b.args...)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// FindByID returns the record with the given id.
func (r *DocumentPostgres) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, id.Hex()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find document %s: %w", id.Hex(), err)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		doc   model.Document
		idHex string
		tags  []byte
	)
	err := row.Scan(
		&idHex,
		&doc.Brand,
		&doc.Title,
		&doc.Description,
		&doc.ContentType,
		&doc.Size,
		&doc.StoredName,
		&doc.OriginalName,
		&doc.StorageLocation,
		&tags,
	)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, fmt.Errorf("stored id %q is not a valid object id: %w", idHex, err)
	}
	doc.ID = id

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &doc.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for %s: %w", idHex, err)
		}
	}
	if len(doc.Tags) == 0 {
		doc.Tags = nil
	}
	return &doc, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if len(tags) == 0 {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return b, nil
}
