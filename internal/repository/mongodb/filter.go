package mongodb

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"liftdocs/internal/repository"
)

// compileFilter translates a repository.Filter tree into a bson query
// document. Substring values are regex-escaped, so user input can never
// change the shape of the query. Empty And/Or groups match everything.
func compileFilter(f repository.Filter) (bson.M, error) {
	switch node := f.(type) {
	case repository.MatchAll:
		return bson.M{}, nil

	case repository.Equals:
		if !node.Field.Valid() {
			return nil, fmt.Errorf("field %q is not filterable", node.Field)
		}
		// Mongo equality on an array field already means "array contains
		// the value", which is exactly the tags semantics.
		return bson.M{string(node.Field): node.Value}, nil

	case repository.ContainsFold:
		if !node.Field.Valid() {
			return nil, fmt.Errorf("field %q is not filterable", node.Field)
		}
		pattern := bson.M{"$regex": regexp.QuoteMeta(node.Value), "$options": "i"}
		if node.Field == repository.FieldTags {
			return bson.M{string(node.Field): bson.M{"$elemMatch": pattern}}, nil
		}
		return bson.M{string(node.Field): pattern}, nil

	case repository.And:
		parts, err := compileChildren(node)
		if err != nil {
			return nil, err
		}
		return mergeAnd(parts), nil

	case repository.Or:
		parts, err := compileChildren(node)
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			return bson.M{}, nil
		}
		return bson.M{"$or": parts}, nil
	}

	return nil, fmt.Errorf("unsupported filter %T", f)
}

func compileChildren(children []repository.Filter) ([]bson.M, error) {
	parts := make([]bson.M, 0, len(children))
	for _, child := range children {
		q, err := compileFilter(child)
		if err != nil {
			return nil, err
		}
		parts = append(parts, q)
	}
	return parts, nil
}

// mergeAnd folds conjunction parts into one document when their keys do not
// collide, and falls back to an explicit $and otherwise.
func mergeAnd(parts []bson.M) bson.M {
	merged := bson.M{}
	for _, part := range parts {
		for k, v := range part {
			if _, taken := merged[k]; taken {
				return bson.M{"$and": parts}
			}
			merged[k] = v
		}
	}
	return merged
}
