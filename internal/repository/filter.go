package repository

// Field names a document attribute that filters may reference. Only fields
// listed here can appear in a filter; backends reject anything else, so
// callers can never smuggle arbitrary keys into a store query.
type Field string

const (
	FieldBrand       Field = "brand"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldTags        Field = "tags"
)

// Valid reports whether f is one of the filterable fields.
func (f Field) Valid() bool {
	switch f {
	case FieldBrand, FieldTitle, FieldDescription, FieldTags:
		return true
	}
	return false
}

// Filter is a store-independent search expression. Each backend compiles the
// tree into its own query language (bson for MongoDB, SQL for Postgres), so
// user input never reaches a store as raw query text.
//
// The interface is sealed: only the node types in this package implement it.
type Filter interface {
	isFilter()
}

// MatchAll matches every record.
type MatchAll struct{}

// Equals matches records whose field equals Value exactly. For the tags
// field it matches records containing Value as one of their tags.
type Equals struct {
	Field Field
	Value string
}

// ContainsFold matches records whose field contains Value as a
// case-insensitive substring. For the tags field any single tag may match.
type ContainsFold struct {
	Field Field
	Value string
}

// And matches records satisfying every child filter.
type And []Filter

// Or matches records satisfying at least one child filter.
type Or []Filter

func (MatchAll) isFilter()     {}
func (Equals) isFilter()       {}
func (ContainsFold) isFilter() {}
func (And) isFilter()          {}
func (Or) isFilter()           {}
