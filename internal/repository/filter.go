package repository

import (
	"fmt"
	"strings"
)

// Predicate is a typed query condition. Columns are code-owned constants and
// values always travel as bound parameters, so filters can be combined freely
// without string concatenation.
type Predicate struct {
	render func(args *[]any) string
}

func Eq(column string, value any) Predicate {
	return comparison(column, "=", value)
}

func Neq(column string, value any) Predicate {
	return comparison(column, "<>", value)
}

func Gte(column string, value any) Predicate {
	return comparison(column, ">=", value)
}

func Lte(column string, value any) Predicate {
	return comparison(column, "<=", value)
}

// Contains matches a case-insensitive substring of a text column.
func Contains(column string, substring string) Predicate {
	return Predicate{render: func(args *[]any) string {
		*args = append(*args, substring)
		return fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", column, len(*args))
	}}
}

func And(predicates ...Predicate) Predicate {
	return group(" AND ", predicates)
}

func Or(predicates ...Predicate) Predicate {
	return group(" OR ", predicates)
}

// Where renders a predicate into a SQL fragment and its bound arguments,
// numbering placeholders after the given existing arguments.
func Where(predicate Predicate, existing ...any) (string, []any) {
	args := append([]any{}, existing...)
	clause := predicate.render(&args)
	return clause, args
}

func comparison(column string, operator string, value any) Predicate {
	return Predicate{render: func(args *[]any) string {
		*args = append(*args, value)
		return fmt.Sprintf("%s %s $%d", column, operator, len(*args))
	}}
}

func group(separator string, predicates []Predicate) Predicate {
	return Predicate{render: func(args *[]any) string {
		parts := make([]string, 0, len(predicates))
		for _, predicate := range predicates {
			parts = append(parts, predicate.render(args))
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "(" + strings.Join(parts, separator) + ")"
	}}
}
