package mapping

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the per-value-kind strategy plugged into a Field. It decides what
// "unset" means for the kind and how two values compare. Canonical must agree
// with Equal: equal values produce equal canonical strings, because the
// canonical form feeds both the string representation and the hash.
type Kind interface {
	Name() string
	IsSet(v any) bool
	Equal(a, b any) bool
	Canonical(v any) string
}

// DateLayout is the canonical calendar-date form.
const DateLayout = "2006-01-02"

// InstantPrecision is the finest instant resolution PostgreSQL keeps.
const InstantPrecision = time.Microsecond

// normalizer is implemented by kinds whose values lose precision in
// storage. normalize rewrites the value behind a scan target to what the
// database will keep.
type normalizer interface {
	normalize(target any)
}

const nullLiteral = "null"

// Built-in kinds.
var (
	Text      Kind = textKind{}
	Integer   Kind = integerKind{}
	Bool      Kind = boolKind{}
	Decimal   Kind = decimalKind{}
	Date      Kind = dateKind{}
	Timestamp Kind = timestampKind{}
	TextList  Kind = textListKind{}
)

type textKind struct{}

func (textKind) Name() string { return "text" }
func (textKind) IsSet(v any) bool { return asString(v) != "" }
func (textKind) Equal(a, b any) bool { return asString(a) == asString(b) }
func (textKind) Canonical(v any) string { return asString(v) }

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	case fmt.Stringer:
		return s.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

type integerKind struct{}

func (integerKind) Name() string { return "integer" }
func (integerKind) IsSet(v any) bool { return asInt(v) != 0 }
func (integerKind) Equal(a, b any) bool {
	return asInt(a) == asInt(b)
}
func (integerKind) Canonical(v any) string { return strconv.FormatInt(asInt(v), 10) }

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int16:
		return int64(n)
	case int8:
		return int64(n)
	case uint32:
		return int64(n)
	case uint16:
		return int64(n)
	case uint8:
		return int64(n)
	case *int64:
		if n == nil {
			return 0
		}
		return *n
	default:
		return 0
	}
}

// boolKind has no unset sentinel: false is a legitimate value.
type boolKind struct{}

func (boolKind) Name() string { return "bool" }
func (boolKind) IsSet(any) bool { return true }
func (boolKind) Equal(a, b any) bool { return asBool(a) == asBool(b) }
func (boolKind) Canonical(v any) string {
	return strconv.FormatBool(asBool(v))
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// decimalKind compares numerically, so 1.5 and 1.50 are equal.
type decimalKind struct{}

func (decimalKind) Name() string { return "decimal" }

func (decimalKind) IsSet(v any) bool {
	d, ok := asDecimal(v)
	if !ok {
		return false
	}
	if _, isValue := v.(decimal.Decimal); isValue {
		return !d.IsZero()
	}
	return true
}

func (decimalKind) Equal(a, b any) bool {
	da, oka := asDecimal(a)
	db, okb := asDecimal(b)
	if !oka || !okb {
		return oka == okb
	}
	return da.Equal(db)
}

func (decimalKind) Canonical(v any) string {
	d, ok := asDecimal(v)
	if !ok {
		return nullLiteral
	}
	return d.String()
}

// asDecimal reports false for null decimals.
func asDecimal(v any) (decimal.Decimal, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, true
	case decimal.NullDecimal:
		return d.Decimal, d.Valid
	case *decimal.Decimal:
		if d == nil {
			return decimal.Decimal{}, false
		}
		return *d, true
	default:
		return decimal.Decimal{}, false
	}
}

// dateKind compares calendar dates by their canonical string in the value's
// own location, so the same day stored through different offsets stays equal.
type dateKind struct{}

func (dateKind) Name() string { return "date" }

func (dateKind) IsSet(v any) bool {
	_, ok := asTime(v)
	return ok
}

func (k dateKind) Equal(a, b any) bool { return k.Canonical(a) == k.Canonical(b) }

func (dateKind) Canonical(v any) string {
	t, ok := asTime(v)
	if !ok {
		return nullLiteral
	}
	return t.Format(DateLayout)
}

type timestampKind struct{}

func (timestampKind) Name() string { return "timestamp" }

func (timestampKind) IsSet(v any) bool {
	_, ok := asTime(v)
	return ok
}

func (timestampKind) Equal(a, b any) bool {
	ta, oka := asTime(a)
	tb, okb := asTime(b)
	if !oka || !okb {
		return oka == okb
	}
	return ta.Equal(tb)
}

func (timestampKind) normalize(target any) {
	if t, ok := target.(*time.Time); ok && !t.IsZero() {
		*t = t.Truncate(InstantPrecision)
	}
}

func (timestampKind) Canonical(v any) string {
	t, ok := asTime(v)
	if !ok {
		return nullLiteral
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// asTime reports false for nil pointers and zero times.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

// textListKind is an ordered collection of strings; empty means unset and
// nil equals empty.
type textListKind struct{}

func (textListKind) Name() string { return "text_list" }
func (textListKind) IsSet(v any) bool { return len(asStrings(v)) > 0 }
func (textListKind) Equal(a, b any) bool { return slices.Equal(asStrings(a), asStrings(b)) }
func (textListKind) Canonical(v any) string {
	return "[" + strings.Join(asStrings(v), ", ") + "]"
}

func asStrings(v any) []string {
	switch s := v.(type) {
	case StringList:
		return s
	case []string:
		return s
	default:
		return nil
	}
}

// StringList is a []string column stored as a JSON array.
type StringList []string

// TextListField declares a StringList field.
func TextListField[T any](name string, ref func(*T) *StringList) *FieldBuilder[T] {
	return NewField[T](name).
		Kind(TextList).
		Get(func(e T) any { return *ref(&e) }).
		Scan(func(e *T) any { return ref(e) })
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if len(out) == 0 {
		out = nil
	}
	*l = out
	return nil
}

// DecimalField declares a nullable decimal field.
func DecimalField[T any](name string, ref func(*T) *decimal.NullDecimal) *FieldBuilder[T] {
	return NewField[T](name).
		Kind(Decimal).
		Get(func(e T) any { return *ref(&e) }).
		Scan(func(e *T) any { return ref(e) })
}

// DateField declares a nullable calendar date.
func DateField[T any](name string, ref func(*T) **time.Time) *FieldBuilder[T] {
	return NewField[T](name).
		Kind(Date).
		Get(func(e T) any { return *ref(&e) }).
		Scan(func(e *T) any { return ref(e) })
}

// TimestampField declares an instant.
func TimestampField[T any](name string, ref func(*T) *time.Time) *FieldBuilder[T] {
	return NewField[T](name).
		Kind(Timestamp).
		Get(func(e T) any { return *ref(&e) }).
		Scan(func(e *T) any { return ref(e) })
}
