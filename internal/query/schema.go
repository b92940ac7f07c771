package query

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidQuery is returned when a filter value cannot be coerced to its
// field's kind.
var ErrInvalidQuery = errors.New("invalid query")

// InvalidValueError names the offending field and value.
type InvalidValueError struct {
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("Invalid %s: %s.", e.Field, e.Value)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidQuery }

// Kind is the value type of a filterable field.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInt
	KindTime
	KindBool
	KindUUID
)

// Field describes one queryable field of a collection.
type Field struct {
	Name     string
	Kind     Kind
	Sortable bool
	// Multi allows repeated values to become an OpIn condition. Any other
	// field keeps only the last value.
	Multi bool
	// Hidden fields are filterable but never projected.
	Hidden bool
	// NoFilter fields can be projected but not filtered on.
	NoFilter bool
}

// Schema lists a collection's queryable fields.
type Schema struct {
	name   string
	fields map[string]Field
	order  []string
}

// NewSchema builds a Schema from fields. The id field is added when absent.
func NewSchema(name string, fields ...Field) Schema {
	s := Schema{name: name, fields: make(map[string]Field, len(fields)+1)}
	if !slices.ContainsFunc(fields, func(f Field) bool { return f.Name == IDField }) {
		fields = append([]Field{{Name: IDField, Kind: KindUUID, Sortable: true}}, fields...)
	}
	for _, f := range fields {
		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}
	return s
}

// Name is the collection name.
func (s Schema) Name() string { return s.name }

// Lookup returns the field named name.
func (s Schema) Lookup(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the projectable field names in declaration order.
func (s Schema) Fields() []string {
	out := make([]string, 0, len(s.order))
	for _, name := range s.order {
		if !s.fields[name].Hidden {
			out = append(out, name)
		}
	}
	return out
}

// Resolve binds raw filter values to typed values, drops conditions, sort
// keys and selected fields the schema does not know, and collapses
// repeated values. Conditions added with Spec.Where pass through unchanged.
func (s Schema) Resolve(spec Spec) (Spec, error) {
	out := spec.clone()

	out.conditions = out.conditions[:0]
	for _, c := range spec.conditions {
		if c.Resolved() {
			out.conditions = append(out.conditions, c)
			continue
		}
		f, ok := s.fields[c.Field]
		if !ok || f.NoFilter || len(c.Raw) == 0 {
			continue
		}
		resolved, err := f.resolve(c)
		if err != nil {
			return Spec{}, err
		}
		out.conditions = append(out.conditions, resolved)
	}

	out.sort = out.sort[:0]
	for _, k := range spec.sort {
		if f, ok := s.fields[k.Field]; ok && f.Sortable {
			out.sort = append(out.sort, k)
		}
	}

	out.include = s.known(spec.include)
	out.exclude = s.known(spec.exclude)
	if len(spec.include) > 0 && len(out.include) == 0 {
		// Every requested field was unknown; select id only rather than everything.
		out.include = []string{IDField}
	}
	return out, nil
}

func (s Schema) known(names []string) []string {
	var out []string
	for _, n := range names {
		if f, ok := s.fields[n]; ok && !f.Hidden && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func (f Field) resolve(c Condition) (Condition, error) {
	if f.Multi && c.Op == OpEq && len(c.Raw) > 1 {
		values := make([]any, 0, len(c.Raw))
		for _, raw := range c.Raw {
			v, err := f.coerce(raw)
			if err != nil {
				return Condition{}, err
			}
			values = append(values, v)
		}
		return Condition{Field: c.Field, Op: OpIn, Raw: c.Raw, Value: values}, nil
	}

	last := c.Raw[len(c.Raw)-1]
	v, err := f.coerce(last)
	if err != nil {
		return Condition{}, err
	}
	return Condition{Field: c.Field, Op: c.Op, Raw: []string{last}, Value: v}, nil
}

func (f Field) coerce(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	invalid := &InvalidValueError{Field: f.Name, Value: raw}
	switch f.Kind {
	case KindNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalid
		}
		return v, nil
	case KindInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, invalid
		}
		return v, nil
	case KindTime:
		if v, err := time.Parse(time.RFC3339, raw); err == nil {
			return v.UTC(), nil
		}
		v, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, invalid
		}
		return v, nil
	case KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalid
		}
		return v, nil
	case KindUUID:
		v, err := uuid.Parse(raw)
		if err != nil {
			return nil, invalid
		}
		return v, nil
	default:
		return raw, nil
	}
}
