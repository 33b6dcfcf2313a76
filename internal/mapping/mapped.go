package mapping

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MappedField is one field descriptor resolved against one entity value.
type MappedField struct {
	Name       string
	Column     string
	Value      any
	Mandatory  bool
	Set        bool
	PrimaryKey bool

	kind Kind
}

// Equal compares two mapped fields by name and by the field kind's equality.
func (f MappedField) Equal(o MappedField) bool {
	if f.Name != o.Name {
		return false
	}
	if f.kind == nil || o.kind == nil {
		return f.kind == nil && o.kind == nil
	}
	return f.kind.Equal(f.Value, o.Value)
}

// Canonical returns the kind-specific canonical form of the value.
func (f MappedField) Canonical() string {
	if f.kind == nil {
		return ""
	}
	return f.kind.Canonical(f.Value)
}

// Column is a column/value pair ready for a write statement.
type Column struct {
	Name  string
	Value any
}

// Mapped is an immutable, ordered view of one entity's fields. The string
// form and the hash are computed once in newMapped.
type Mapped struct {
	entity string
	fields []MappedField
	index  map[string]int
	str    string
	hash   uint64
}

func newMapped(entity string, fields []MappedField) Mapped {
	m := Mapped{
		entity: entity,
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}

	var b strings.Builder
	b.WriteString(entity)
	b.WriteByte('{')
	for i, f := range fields {
		m.index[f.Name] = i
		c := f.Canonical()
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(c)

		// Summing per-field digests keeps the hash independent of field order,
		// matching Equal which pairs fields by name.
		m.hash += xxhash.Sum64String(f.Name + "\x00" + c)
	}
	b.WriteByte('}')
	m.str = b.String()
	return m
}

// Entity returns the entity kind name.
func (m Mapped) Entity() string { return m.entity }

// Fields returns a copy of the mapped fields in declaration order.
func (m Mapped) Fields() []MappedField {
	out := make([]MappedField, len(m.fields))
	copy(out, m.fields)
	return out
}

// Field looks a mapped field up by name.
func (m Mapped) Field(name string) (MappedField, bool) {
	i, ok := m.index[name]
	if !ok {
		return MappedField{}, false
	}
	return m.fields[i], true
}

// String returns the cached canonical form, e.g. `Customer{id: 1, name: Acme}`.
func (m Mapped) String() string { return m.str }

// Hash returns the cached hash. Equal views have equal hashes.
func (m Mapped) Hash() uint64 { return m.hash }

// Equal reports whether both views describe the same entity kind and every
// field is equal to the same-named field of o under its kind's equality.
func (m Mapped) Equal(o Mapped) bool {
	if m.entity != o.entity || len(m.fields) != len(o.fields) {
		return false
	}
	if m.hash != o.hash {
		return false
	}
	for _, f := range m.fields {
		of, ok := o.Field(f.Name)
		if !ok || !f.Equal(of) {
			return false
		}
	}
	return true
}

// CanBeInserted reports whether every mandatory field is set.
func (m Mapped) CanBeInserted() bool {
	for _, f := range m.fields {
		if f.Mandatory && !f.Set {
			return false
		}
	}
	return true
}

// MissingMandatoryFieldNames lists the unset mandatory fields in declaration
// order. It is empty exactly when CanBeInserted is true.
func (m Mapped) MissingMandatoryFieldNames() []string {
	var missing []string
	for _, f := range m.fields {
		if f.Mandatory && !f.Set {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// InsertColumns returns every non-key column with its value.
func (m Mapped) InsertColumns() []Column {
	cols := make([]Column, 0, len(m.fields))
	for _, f := range m.fields {
		if f.PrimaryKey {
			continue
		}
		cols = append(cols, Column{Name: f.Column, Value: f.Value})
	}
	return cols
}

// UpdateColumns returns the columns replaced by a wholesale update. The key
// is fixed and never rewritten.
func (m Mapped) UpdateColumns() []Column { return m.InsertColumns() }

// ID returns the primary key value, or 0 when the schema has none.
func (m Mapped) ID() int64 {
	for _, f := range m.fields {
		if f.PrimaryKey {
			return asInt(f.Value)
		}
	}
	return 0
}
