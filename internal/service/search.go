package service

import (
	"errors"

	"liftdocs/internal/repository"
)

const (
	// DefaultSearchLimit applies when the caller does not ask for one.
	DefaultSearchLimit = 100
	// MaxSearchLimit caps caller-supplied limits so a single request cannot
	// demand an unbounded result set.
	MaxSearchLimit = 1000
)

// ErrInvalidLimit marks a search limit that is not a positive integer.
var ErrInvalidLimit = errors.New("limit must be a positive integer")

// SearchQuery carries the search parameters: an optional free-text term, an
// optional exact brand, and a result limit. A zero Limit means the default.
type SearchQuery struct {
	Term  string
	Brand string
	Limit int64
}

// Filter translates the query into the repository's filter expression. Brand
// must match exactly (case-sensitive); the term must appear, case-insensitive,
// in at least one of title, description, or tags. Both constraints combine
// with AND when present; neither yields a filter matching everything.
func (q SearchQuery) Filter() repository.Filter {
	var parts repository.And
	if q.Brand != "" {
		parts = append(parts, repository.Equals{Field: repository.FieldBrand, Value: q.Brand})
	}
	if q.Term != "" {
		parts = append(parts, repository.Or{
			repository.ContainsFold{Field: repository.FieldTitle, Value: q.Term},
			repository.ContainsFold{Field: repository.FieldDescription, Value: q.Term},
			repository.ContainsFold{Field: repository.FieldTags, Value: q.Term},
		})
	}

	switch len(parts) {
	case 0:
		return repository.MatchAll{}
	case 1:
		return parts[0]
	}
	return parts
}

// bound resolves the effective result limit for the query.
func (q SearchQuery) bound() (int64, error) {
	switch {
	case q.Limit == 0:
		return DefaultSearchLimit, nil
	case q.Limit < 0:
		return 0, ErrInvalidLimit
	case q.Limit > MaxSearchLimit:
		return MaxSearchLimit, nil
	}
	return q.Limit, nil
}
