package model

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrMalformedID marks an identifier that is not a valid ObjectID hex string.
// It is distinct from not-found: a malformed identifier is a caller mistake,
// not a lookup miss.
var ErrMalformedID = errors.New("malformed document id")

// NewID returns a fresh document identifier. ObjectIDs are generated locally
// without coordination, are unique with overwhelming probability, sort by
// creation time, and hex-encode to a filesystem-safe name fragment, which is
// why the same identifier doubles as the stored blob name.
func NewID() primitive.ObjectID {
	return primitive.NewObjectID()
}

// ParseID parses the public hex form of a document identifier.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	return id, nil
}
