package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"liftdocs/internal/repository"
)

// queryBuilder accumulates positional arguments while a filter tree is
// compiled into a WHERE clause. All values travel as parameters; the SQL text
// itself is assembled only from fixed fragments.
type queryBuilder struct {
	args []any
}

// bind registers v as the next positional argument and returns its
// placeholder.
func (b *queryBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// compile renders the filter tree as a boolean SQL expression. Empty And/Or
// groups match everything.
func (b *queryBuilder) compile(f repository.Filter) (string, error) {
	switch node := f.(type) {
	case repository.MatchAll:
		return "TRUE", nil

	case repository.Equals:
		if !node.Field.Valid() {
			return "", fmt.Errorf("field %q is not filterable", node.Field)
		}
		if node.Field == repository.FieldTags {
			// jsonb containment: the tags array has the value as an element.
			// Marshal of a []string cannot fail.
			elem, _ := json.Marshal([]string{node.Value})
			return "tags @> " + b.bind(string(elem)) + "::jsonb", nil
		}
		return string(node.Field) + " = " + b.bind(node.Value), nil

	case repository.ContainsFold:
		if !node.Field.Valid() {
			return "", fmt.Errorf("field %q is not filterable", node.Field)
		}
		pattern := "%" + escapeLike(node.Value) + "%"
		if node.Field == repository.FieldTags {
			return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) AS elem(tag) WHERE elem.tag ILIKE " + b.bind(pattern) + ")", nil
		}
		return string(node.Field) + " ILIKE " + b.bind(pattern), nil

	case repository.And:
		return b.compileGroup(node, " AND ")

	case repository.Or:
		return b.compileGroup(node, " OR ")
	}

	return "", fmt.Errorf("unsupported filter %T", f)
}

func (b *queryBuilder) compileGroup(children []repository.Filter, sep string) (string, error) {
	if len(children) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(children))
	for _, child := range children {
		expr, err := b.compile(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, expr)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// escapeLike neutralizes LIKE wildcards in user input so a value such as
// "100%" matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
