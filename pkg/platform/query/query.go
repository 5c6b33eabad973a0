// Package query describes store-agnostic filter specs. In-memory stores evaluate
// them through field accessors, Postgres stores translate them to WHERE clauses.
package query

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Operator is a comparison supported by every store.
type Operator string

const (
	OpEqual    Operator = "="
	OpNotEqual Operator = "!="
	OpIn       Operator = "in"
)

// Criterion filters on one field.
type Criterion struct {
	Field    string
	Operator Operator
	Value    any
}

// Spec is a conjunction of criteria with optional paging.
type Spec struct {
	Filters  []Criterion
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// Where starts a Spec with a single equality criterion.
func Where(field string, value any) Spec {
	return Spec{Filters: []Criterion{{Field: field, Operator: OpEqual, Value: value}}}
}

// And appends an equality criterion.
func (s Spec) And(field string, value any) Spec {
	s.Filters = append(s.Filters, Criterion{Field: field, Operator: OpEqual, Value: value})
	return s
}

// AndIn appends a membership criterion.
func (s Spec) AndIn(field string, values ...any) Spec {
	s.Filters = append(s.Filters, Criterion{Field: field, Operator: OpIn, Value: values})
	return s
}

// Accessor reads a named field from an entity; ok=false marks an unknown field.
type Accessor[T any] func(entity T, field string) (value any, ok bool)

// Apply filters, sorts and pages items in memory.
func Apply[T any](items []T, spec Spec, get Accessor[T]) ([]T, error) {
	var out []T
	for _, item := range items {
		matched, err := matches(item, spec.Filters, get)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, item)
		}
	}

	if spec.SortBy != "" {
		var sortErr error
		sort.SliceStable(out, func(i, j int) bool {
			a, okA := get(out[i], spec.SortBy)
			b, okB := get(out[j], spec.SortBy)
			if !okA || !okB {
				sortErr = fmt.Errorf("unknown sort field %q", spec.SortBy)
				return false
			}
			c := compare(a, b)
			if spec.SortDesc {
				return c > 0
			}
			return c < 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
	}

	if spec.Offset > 0 {
		if spec.Offset >= len(out) {
			return nil, nil
		}
		out = out[spec.Offset:]
	}
	if spec.Limit > 0 && len(out) > spec.Limit {
		out = out[:spec.Limit]
	}
	return out, nil
}

func matches[T any](item T, filters []Criterion, get Accessor[T]) (bool, error) {
	for _, c := range filters {
		actual, ok := get(item, c.Field)
		if !ok {
			return false, fmt.Errorf("unknown query field %q", c.Field)
		}
		switch c.Operator {
		case OpEqual, "":
			if !equal(actual, c.Value) {
				return false, nil
			}
		case OpNotEqual:
			if equal(actual, c.Value) {
				return false, nil
			}
		case OpIn:
			if !contains(c.Value, actual) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported operator %q", c.Operator)
		}
	}
	return true, nil
}

// equal compares by string form so typed enums match their raw values.
func equal(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func contains(list, v any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return equal(list, v)
	}
	for i := 0; i < rv.Len(); i++ {
		if equal(rv.Index(i).Interface(), v) {
			return true
		}
	}
	return false
}

func compare(a, b any) int {
	type timeLike interface{ UnixNano() int64 }
	if ta, ok := a.(timeLike); ok {
		if tb, ok := b.(timeLike); ok {
			switch {
			case ta.UnixNano() < tb.UnixNano():
				return -1
			case ta.UnixNano() > tb.UnixNano():
				return 1
			}
			return 0
		}
	}
	if ia, ok := a.(int); ok {
		if ib, ok := b.(int); ok {
			return ia - ib
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// Columns maps query fields to SQL column names.
type Columns map[string]string

// SQL renders the spec as a WHERE/ORDER/LIMIT suffix with numbered placeholders
// starting after argOffset existing arguments.
func SQL(spec Spec, cols Columns, argOffset int) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", argOffset+len(args))
	}

	for _, c := range spec.Filters {
		col, ok := cols[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown query field %q", c.Field)
		}
		switch c.Operator {
		case OpEqual, "":
			clauses = append(clauses, col+" = "+next(sqlValue(c.Value)))
		case OpNotEqual:
			clauses = append(clauses, col+" <> "+next(sqlValue(c.Value)))
		case OpIn:
			rv := reflect.ValueOf(c.Value)
			if rv.Kind() != reflect.Slice || rv.Len() == 0 {
				clauses = append(clauses, "FALSE")
				continue
			}
			placeholders := make([]string, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				placeholders[i] = next(sqlValue(rv.Index(i).Interface()))
			}
			clauses = append(clauses, col+" IN ("+strings.Join(placeholders, ", ")+")")
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Operator)
		}
	}

	var b strings.Builder
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}
	if spec.SortBy != "" {
		col, ok := cols[spec.SortBy]
		if !ok {
			return "", nil, fmt.Errorf("unknown sort field %q", spec.SortBy)
		}
		b.WriteString(" ORDER BY " + col)
		if spec.SortDesc {
			b.WriteString(" DESC")
		}
	}
	if spec.Limit > 0 {
		b.WriteString(" LIMIT " + next(spec.Limit))
	}
	if spec.Offset > 0 {
		b.WriteString(" OFFSET " + next(spec.Offset))
	}
	return b.String(), args, nil
}

// sqlValue lowers named string/int types to their base kind for the driver.
func sqlValue(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Bool:
		return rv.Bool()
	default:
		return v
	}
}
