package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"liftdocs/internal/model"
	"liftdocs/internal/repository"
	"liftdocs/internal/storage"
)

var (
	// ErrNotFound covers both a missing record and a record whose blob is gone
	// from storage; callers must not be able to tell the two apart.
	ErrNotFound = errors.New("document not found")
	// ErrReaderNil marks an upload with no file stream.
	ErrReaderNil = errors.New("reader is nil")
)

// UploadInput bundles everything an upload carries: the metadata form fields
// and the file stream. Size is the client-declared byte count if known, or -1;
// the authoritative size is whatever the blob store reports after writing.
type UploadInput struct {
	Draft       model.DocumentDraft
	File        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// DocumentStream couples a record with its blob opened for reading. The
// caller owns Body and must close it (streaming it as a response body counts).
type DocumentStream struct {
	Document *model.Document
	Body     io.ReadCloser
	Size     int64
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates the metadata, streams the file into the blob store
	// under an id-derived name, and inserts the record. The record is created
	// only after the blob is fully written; a failed insert rolls the blob
	// back, so neither half ever survives alone.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// Search returns the client-facing projections of the records matching
	// the query.
	Search(ctx context.Context, q SearchQuery) ([]model.DocumentView, error)

	// Open resolves an id to its record and opens the stored blob for
	// reading. It verifies at call time that the blob still exists.
	Open(ctx context.Context, id primitive.ObjectID) (*DocumentStream, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.BlobStore
	repo  repository.DocumentRepository
	log   *zap.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.BlobStore, repo repository.DocumentRepository, log *zap.Logger) DocumentService {
	return &documentService{store: store, repo: repo, log: log}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	// Reject bad metadata before paying for the blob write.
	if err := in.Draft.Validate(); err != nil {
		return nil, err
	}
	if in.File == nil {
		return nil, ErrReaderNil
	}

	id := model.NewID()
	name := storedName(id, in.Filename)

	info, err := s.store.Put(ctx, name, in.File, storage.PutOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	doc := &model.Document{
		ID:              id,
		Brand:           in.Draft.Brand,
		Title:           in.Draft.Title,
		Description:     in.Draft.Description,
		ContentType:     in.ContentType,
		Size:            info.Size,
		StoredName:      name,
		OriginalName:    in.Filename,
		StorageLocation: info.Key,
		Tags:            model.ParseTags(in.Draft.Tags),
	}

	if _, err := s.repo.Insert(ctx, doc); err != nil {
		// The blob is already durable; remove it so a failed insert cannot
		// leave an orphan behind.
		if delErr := s.store.Delete(ctx, info.Key); delErr != nil {
			s.log.Error("rollback blob delete failed",
				zap.String("location", info.Key),
				zap.Error(delErr),
			)
			return nil, fmt.Errorf("save metadata: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	s.log.Info("document stored",
		zap.String("id", id.Hex()),
		zap.String("brand", doc.Brand),
		zap.String("filename", name),
		zap.Int64("size", doc.Size),
	)
	return doc, nil
}

func (s *documentService) Search(ctx context.Context, q SearchQuery) ([]model.DocumentView, error) {
	limit, err := q.bound()
	if err != nil {
		return nil, err
	}

	docs, err := s.repo.Find(ctx, q.Filter(), limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	// Projection is not optional: only views leave the service, so the
	// storage location cannot end up in a response.
	views := make([]model.DocumentView, 0, len(docs))
	for i := range docs {
		views = append(views, docs[i].View())
	}
	return views, nil
}

func (s *documentService) Open(ctx context.Context, id primitive.ObjectID) (*DocumentStream, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load document %s: %w", id.Hex(), err)
	}

	body, info, err := s.store.Open(ctx, doc.StorageLocation)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			// The record survived but its blob was removed out-of-band.
			s.log.Warn("blob missing for document", zap.String("id", id.Hex()))
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob for %s: %w", id.Hex(), err)
	}

	return &DocumentStream{Document: doc, Body: body, Size: info.Size}, nil
}

// storedName derives the blob name from the generated id plus the original
// filename's extension. Nothing else of the client name is used, so a hostile
// filename cannot steer where the blob lands or collide with another upload.
func storedName(id primitive.ObjectID, original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, `/`))
	ext := path.Ext(base)
	if len(ext) <= 1 { // no extension, or a bare trailing dot
		return id.Hex()
	}
	return id.Hex() + ext
}
