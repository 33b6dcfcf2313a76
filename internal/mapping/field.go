// Package mapping provides the declarative field-metadata model shared by all
// persisted entities.
//
// Each entity type declares its fields once as a Schema. The schema reduces an
// entity value to a Mapped view that drives equality, hashing, the canonical
// string form, mandatory-field validation and the column/value pairs used by
// the partitioned store. No reflection is involved: every field carries an
// explicit getter and scan target.
//
// Import Path: tutorhub.io/tutorhub/internal/mapping
package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// Role tells whether a field must be set for an operation.
type Role uint8

const (
	// Optional fields may be left unset.
	Optional Role = iota
	// Mandatory fields must be set before the entity can be written.
	Mandatory
)

// String implements fmt.Stringer.
func (r Role) String() string {
	if r == Mandatory {
		return "mandatory"
	}
	return "optional"
}

// Builder errors.
var (
	ErrEmptyFieldName  = errors.New("mapping: field name must not be empty")
	ErrIncompleteField = errors.New("mapping: field descriptor is incomplete")
)

// Field describes how one property of T is named, stored, extracted and
// compared. Fields are immutable and safe to share across goroutines.
type Field[T any] struct {
	name       string
	column     string
	role       Role
	primaryKey bool
	kind       Kind
	get        func(T) any
	target     func(*T) any
}

// Name returns the field name used in validation messages and string forms.
func (f Field[T]) Name() string { return f.name }

// Column returns the storage column the field is persisted to.
func (f Field[T]) Column() string { return f.column }

// Role returns whether the field is mandatory.
func (f Field[T]) Role() Role { return f.role }

// IsMandatory reports whether the field must be set.
func (f Field[T]) IsMandatory() bool { return f.role == Mandatory }

// IsPrimaryKey reports whether the field identifies the entity.
func (f Field[T]) IsPrimaryKey() bool { return f.primaryKey }

// Kind returns the value kind used for set-detection and equality.
func (f Field[T]) Kind() Kind { return f.kind }

// Value extracts the field value from e.
func (f Field[T]) Value(e T) any { return f.get(e) }

// Target returns the scan destination for the field inside e.
func (f Field[T]) Target(e *T) any { return f.target(e) }

// Map resolves the field against one entity value. It never mutates e.
func (f Field[T]) Map(e T) MappedField {
	v := f.get(e)
	return MappedField{
		Name:       f.name,
		Column:     f.column,
		Value:      v,
		Mandatory:  f.role == Mandatory,
		Set:        f.kind.IsSet(v),
		PrimaryKey: f.primaryKey,
		kind:       f.kind,
	}
}

func (f Field[T]) withRole(r Role) Field[T] {
	f.role = r
	return f
}

// FieldBuilder assembles a Field. Problems are recorded as they happen and
// reported by Build, so a misdeclared schema fails when the package loads.
type FieldBuilder[T any] struct {
	f         Field[T]
	errs      []error
	mandatory bool
	pk        bool
}

// NewField starts a field declaration. The column defaults to the name.
func NewField[T any](name string) *FieldBuilder[T] {
	b := &FieldBuilder[T]{f: Field[T]{name: name, column: name}}
	if strings.TrimSpace(name) == "" {
		b.errs = append(b.errs, ErrEmptyFieldName)
	}
	return b
}

// Column overrides the storage column.
func (b *FieldBuilder[T]) Column(column string) *FieldBuilder[T] {
	b.f.column = column
	return b
}

// Kind sets the value kind.
func (b *FieldBuilder[T]) Kind(k Kind) *FieldBuilder[T] {
	b.f.kind = k
	return b
}

// Get sets the value extractor. Use Convert to adapt typed getters.
func (b *FieldBuilder[T]) Get(get func(T) any) *FieldBuilder[T] {
	b.f.get = get
	return b
}

// Scan sets the function returning the scan destination inside an entity.
func (b *FieldBuilder[T]) Scan(target func(*T) any) *FieldBuilder[T] {
	b.f.target = target
	return b
}

// Mandatory marks the field as mandatory. It may be applied at most once.
func (b *FieldBuilder[T]) Mandatory() *FieldBuilder[T] {
	if b.mandatory {
		b.errs = append(b.errs, fmt.Errorf("mapping: field %q: mandatory flag applied twice", b.f.name))
	}
	b.mandatory = true
	b.f.role = Mandatory
	return b
}

// PrimaryKey marks the field as the entity identifier. It may be applied at
// most once and requires an *int64 scan target.
func (b *FieldBuilder[T]) PrimaryKey() *FieldBuilder[T] {
	if b.pk {
		b.errs = append(b.errs, fmt.Errorf("mapping: field %q: primary key flag applied twice", b.f.name))
	}
	b.pk = true
	b.f.primaryKey = true
	return b
}

// Build validates the declaration and returns the immutable descriptor.
func (b *FieldBuilder[T]) Build() (Field[T], error) {
	errs := append([]error(nil), b.errs...)
	if strings.TrimSpace(b.f.column) == "" {
		errs = append(errs, fmt.Errorf("%w: %q has no column", ErrIncompleteField, b.f.name))
	}
	if b.f.kind == nil {
		errs = append(errs, fmt.Errorf("%w: %q has no kind", ErrIncompleteField, b.f.name))
	}
	if b.f.get == nil {
		errs = append(errs, fmt.Errorf("%w: %q has no getter", ErrIncompleteField, b.f.name))
	}
	if b.f.target == nil {
		errs = append(errs, fmt.Errorf("%w: %q has no scan target", ErrIncompleteField, b.f.name))
	}
	if b.f.primaryKey && b.f.target != nil {
		var probe T
		if _, ok := b.f.target(&probe).(*int64); !ok {
			errs = append(errs, fmt.Errorf("mapping: primary key %q must scan into *int64", b.f.name))
		}
	}
	if len(errs) > 0 {
		return Field[T]{}, errors.Join(errs...)
	}
	return b.f, nil
}

// MustBuild is Build for package-level declarations.
func (b *FieldBuilder[T]) MustBuild() Field[T] {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// Convert adapts a typed getter and a conversion U -> F into a field getter.
func Convert[T, U, F any](get func(T) U, conv func(U) F) func(T) any {
	return func(e T) any { return conv(get(e)) }
}

// Typed shorthands. They set name, column, kind, getter and scan target; the
// returned builder still accepts Column, Mandatory and PrimaryKey.

// IDField declares an int64 primary key.
func IDField[T any](name string, ref func(*T) *int64) *FieldBuilder[T] {
	return NewField[T](name).
		Kind(Integer).
		Get(func(e T) any { return *ref(&e) }).
		Scan(func(e *T) any { return ref(e) }).
		PrimaryKey()
}

// IntField declares an int64 field.
func IntField[T any](name string, ref func(*T) *int64) *FieldBuilder[T] {
	return NewField[T](name).
		Kind(Integer).
		Get(func(e T) any { return *ref(&e) }).
		Scan(func(e *T) any { return ref(e) })
}

// TextField declares a string field.
func TextField[T any](name string, ref func(*T) *string) *FieldBuilder[T] {
	return NewField[T](name).
		Kind(Text).
		Get(func(e T) any { return *ref(&e) }).
		Scan(func(e *T) any { return ref(e) })
}

// BoolField declares a bool field.
func BoolField[T any](name string, ref func(*T) *bool) *FieldBuilder[T] {
	return NewField[T](name).
		Kind(Bool).
		Get(func(e T) any { return *ref(&e) }).
		Scan(func(e *T) any { return ref(e) })
}
