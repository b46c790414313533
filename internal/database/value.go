package database

import "fmt"

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindInt
	KindDouble
	KindFloat
	KindBool
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindOpaque:
		return "opaque"
	default:
		return "null"
	}
}

// Value is one statement parameter. The zero Value binds SQL NULL.
type Value struct {
	kind Kind
	text string
	num  int64
	real float64
	flag bool
	obj  any
}

func Text(v string) Value    { return Value{kind: KindText, text: v} }
func Int(v int64) Value      { return Value{kind: KindInt, num: v} }
func Double(v float64) Value { return Value{kind: KindDouble, real: v} }
func Float(v float32) Value  { return Value{kind: KindFloat, real: float64(v)} }
func Bool(v bool) Value      { return Value{kind: KindBool, flag: v} }

// Opaque wraps anything the typed variants do not cover (time.Time, []byte,
// driver.Valuer, …). It is handed to the driver untouched.
func Opaque(v any) Value { return Value{kind: KindOpaque, obj: v} }

// Null returns the NULL value.
func Null() Value { return Value{} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Any returns the held value as a plain Go value.
func (v Value) Any() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindInt:
		return v.num
	case KindDouble:
		return v.real
	case KindFloat:
		return float32(v.real)
	case KindBool:
		return v.flag
	case KindOpaque:
		return v.obj
	default:
		return nil
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%v)", v.kind, v.Any())
}

// Bind hands v to the binder method matching its variant.
func (v Value) Bind(b Binder, pos int) {
	switch v.kind {
	case KindText:
		b.BindString(pos, v.text)
	case KindInt:
		b.BindInt(pos, v.num)
	case KindDouble:
		b.BindDouble(pos, v.real)
	case KindFloat:
		b.BindFloat(pos, float32(v.real))
	case KindBool:
		b.BindBool(pos, v.flag)
	case KindOpaque:
		b.BindObject(pos, v.obj)
	default:
		b.BindObject(pos, nil)
	}
}

// ValueOf converts a plain Go value into its Value variant.
// Integers that fit int64 become Int; anything unrecognised becomes Opaque.
func ValueOf(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return Text(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case float64:
		return Double(t)
	case float32:
		return Float(t)
	case bool:
		return Bool(t)
	default:
		return Opaque(t)
	}
}

// Values converts each argument with ValueOf.
func Values(xs ...any) []Value {
	out := make([]Value, len(xs))
	for i, x := range xs {
		out[i] = ValueOf(x)
	}
	return out
}
