package model

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the metadata record for one stored blob. The binary payload
// lives in the blob store under StorageLocation; the record itself carries
// only the indexable attributes. BSON field names match the documents
// collection as originally deployed.
type Document struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Brand           string             `bson:"brand"`
	Title           string             `bson:"title"`
	Description     string             `bson:"description,omitempty"`
	ContentType     string             `bson:"content_type,omitempty"`
	Size            int64              `bson:"size"`
	StoredName      string             `bson:"filename"`
	OriginalName    string             `bson:"original_name,omitempty"`
	StorageLocation string             `bson:"path"`
	Tags            []string           `bson:"tags,omitempty"`
}

// DocumentView is the client-facing projection of a Document. It renders the
// identifier as a hex string and has no storage-location field at all, so a
// serialized view can never leak where the blob lives.
type DocumentView struct {
	ID           string   `json:"id"`
	Brand        string   `json:"brand"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	ContentType  string   `json:"content_type,omitempty"`
	Size         int64    `json:"size"`
	StoredName   string   `json:"filename"`
	OriginalName string   `json:"original_name,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// View projects the record into its public shape.
func (d *Document) View() DocumentView {
	return DocumentView{
		ID:           d.ID.Hex(),
		Brand:        d.Brand,
		Title:        d.Title,
		Description:  d.Description,
		ContentType:  d.ContentType,
		Size:         d.Size,
		StoredName:   d.StoredName,
		OriginalName: d.OriginalName,
		Tags:         d.Tags,
	}
}

// ValidationError reports a missing or blank required upload field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// DocumentDraft holds the raw multipart form fields of an upload, before any
// blob has been written.
type DocumentDraft struct {
	Brand       string
	Title       string
	Description string
	Tags        string
}

// Validate checks the required fields. It returns a *ValidationError naming
// the first offending field, so callers can reject the upload before paying
// for the blob write.
func (d DocumentDraft) Validate() error {
	if strings.TrimSpace(d.Brand) == "" {
		return &ValidationError{Field: "brand"}
	}
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title"}
	}
	return nil
}

// ParseTags splits a comma-separated tag string into trimmed tags. Blank
// elements are dropped; an empty or all-blank input yields nil so the tags
// field stays absent rather than becoming a slice of empty strings.
func ParseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
