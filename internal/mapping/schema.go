package mapping

import (
	"errors"
	"fmt"
	"slices"
)

// Schema is the ordered field list of one entity type for one class of
// operation. Create and update variants share fields and differ only in which
// fields are mandatory.
type Schema[T any] struct {
	entity string
	fields []Field[T]
	byName map[string]int
	pk     int
}

// NewSchema validates and assembles a field list.
func NewSchema[T any](entity string, fields ...Field[T]) (*Schema[T], error) {
	if entity == "" {
		return nil, errors.New("mapping: schema entity name must not be empty")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("mapping: schema %s has no fields", entity)
	}

	s := &Schema[T]{
		entity: entity,
		fields: slices.Clone(fields),
		byName: make(map[string]int, len(fields)),
		pk:     -1,
	}
	columns := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.name == "" || f.get == nil {
			return nil, fmt.Errorf("mapping: schema %s: field %d was not built", entity, i)
		}
		if _, dup := s.byName[f.name]; dup {
			return nil, fmt.Errorf("mapping: schema %s: duplicate field %q", entity, f.name)
		}
		if _, dup := columns[f.column]; dup {
			return nil, fmt.Errorf("mapping: schema %s: duplicate column %q", entity, f.column)
		}
		if f.primaryKey {
			if s.pk >= 0 {
				return nil, fmt.Errorf("mapping: schema %s: more than one primary key (%s, %s)",
					entity, s.fields[s.pk].name, f.name)
			}
			s.pk = i
		}
		s.byName[f.name] = i
		columns[f.column] = struct{}{}
	}
	return s, nil
}

// MustSchema is NewSchema for package-level declarations.
func MustSchema[T any](entity string, fields ...Field[T]) *Schema[T] {
	s, err := NewSchema(entity, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// WithMandatory derives a variant of the schema in which the named fields are
// mandatory in addition to those already mandatory.
func (s *Schema[T]) WithMandatory(names ...string) (*Schema[T], error) {
	fields := slices.Clone(s.fields)
	for _, n := range names {
		i, ok := s.byName[n]
		if !ok {
			return nil, fmt.Errorf("mapping: schema %s: unknown field %q", s.entity, n)
		}
		fields[i] = fields[i].withRole(Mandatory)
	}
	return NewSchema(s.entity, fields...)
}

// MustWithMandatory is WithMandatory for package-level declarations.
func (s *Schema[T]) MustWithMandatory(names ...string) *Schema[T] {
	v, err := s.WithMandatory(names...)
	if err != nil {
		panic(err)
	}
	return v
}

// Entity returns the entity kind name.
func (s *Schema[T]) Entity() string { return s.entity }

// Fields returns the descriptors in declaration order.
func (s *Schema[T]) Fields() []Field[T] { return slices.Clone(s.fields) }

// Map reduces e to its mapped view.
func (s *Schema[T]) Map(e T) Mapped {
	mf := make([]MappedField, len(s.fields))
	for i, f := range s.fields {
		mf[i] = f.Map(e)
	}
	return newMapped(s.entity, mf)
}

// Equal compares two entities field by field.
func (s *Schema[T]) Equal(a, b T) bool {
	for _, f := range s.fields {
		if !f.kind.Equal(f.get(a), f.get(b)) {
			return false
		}
	}
	return true
}

// Normalize rewrites e's values to the precision storage keeps, so what a
// write returns equals what a later read scans.
func (s *Schema[T]) Normalize(e *T) {
	for _, f := range s.fields {
		if n, ok := f.kind.(normalizer); ok {
			n.normalize(f.target(e))
		}
	}
}

// Columns returns every column in declaration order, key included.
func (s *Schema[T]) Columns() []string {
	cols := make([]string, len(s.fields))
	for i, f := range s.fields {
		cols[i] = f.column
	}
	return cols
}

// HasColumn reports whether column belongs to the schema.
func (s *Schema[T]) HasColumn(column string) bool {
	for _, f := range s.fields {
		if f.column == column {
			return true
		}
	}
	return false
}

// Targets returns scan destinations inside e, aligned with Columns.
func (s *Schema[T]) Targets(e *T) []any {
	dst := make([]any, len(s.fields))
	for i, f := range s.fields {
		dst[i] = f.target(e)
	}
	return dst
}

// PrimaryKey returns the key descriptor.
func (s *Schema[T]) PrimaryKey() (Field[T], bool) {
	if s.pk < 0 {
		return Field[T]{}, false
	}
	return s.fields[s.pk], true
}

// ID returns e's key value, or 0 when the schema has no key.
func (s *Schema[T]) ID(e T) int64 {
	if s.pk < 0 {
		return 0
	}
	return asInt(s.fields[s.pk].get(e))
}

// SetID writes id into e's key field.
func (s *Schema[T]) SetID(e *T, id int64) {
	if s.pk < 0 {
		return
	}
	if p, ok := s.fields[s.pk].target(e).(*int64); ok {
		*p = id
	}
}
