package tmplx

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which alternative of the Value tagged union is held.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindList
	KindMap
	KindObject
	KindRaw
	KindUnresolved
)

// Value is the universal runtime value threaded through binding
// resolution and the filter pipeline. It is never mutated in place;
// filters return new Values. Grounded on go-goods-tmpl's intValue/
// floatValue/constantValue wrapper types (values.go), generalized into
// one tagged struct instead of several concrete types so filters can
// switch on Kind uniformly.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
	list []Value
	m    map[string]Value
	obj  interface{} // opaque host object, field/index access only
}

// Unresolved is the distinguished singleton marking "no value" as
// described in spec §3 and §9: it is not Null, so unresolved | otherwise(x)
// == x while null | otherwise(x) == null.
var Unresolved = Value{kind: KindUnresolved}

// Null is the legitimate empty value; it renders as the empty string.
var Null = Value{kind: KindNull}

func Bool(b bool) Value   { return Value{kind: KindBool, b: b} }
func Int(i int64) Value   { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }
func List(items []Value) Value { return Value{kind: KindList, list: items} }
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }
func Object(o interface{}) Value { return Value{kind: KindObject, obj: o} }

// RawString wraps s so the page composer emits it verbatim instead of
// HTML-escaping it, matching the raw filter's contract (spec §4.D).
func RawString(s string) Value { return Value{kind: KindRaw, s: s} }

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsUnresolved() bool { return v.kind == KindUnresolved }
func (v Value) IsNull() bool      { return v.kind == KindNull }

func (v Value) Bool() bool           { return v.b }
func (v Value) Int() int64           { return v.i }
func (v Value) Float() float64       { return v.f }
func (v Value) Str() string          { return v.s }
func (v Value) TimeVal() time.Time   { return v.t }
func (v Value) ListVal() []Value     { return v.list }
func (v Value) MapVal() map[string]Value { return v.m }
func (v Value) ObjVal() interface{}  { return v.obj }

// IsNumeric reports whether the value holds an int or float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsFloat64 coerces a numeric Value to float64. Only valid when
// IsNumeric is true.
func (v Value) AsFloat64() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// FromGo wraps an arbitrary Go value coming from the host (e.g. a
// Model, or a value produced by reflection) into a Value.
func FromGo(x interface{}) Value {
	if x == nil {
		return Null
	}
	switch t := x.(type) {
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
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
	case uint:
		return Int(int64(t))
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case time.Time:
		return Time(t)
	case []Value:
		return List(t)
	case map[string]Value:
		return Map(t)
	}

	rv := reflect.ValueOf(x)
	rv = indirect(rv)
	if !rv.IsValid() {
		return Null
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = FromGo(rv.Index(i).Interface())
		}
		return List(items)
	case reflect.Map:
		m := make(map[string]Value, rv.Len())
		for _, key := range rv.MapKeys() {
			m[fmt.Sprint(key.Interface())] = FromGo(rv.MapIndex(key).Interface())
		}
		return Map(m)
	}

	return Object(x)
}

// indirect walks pointer and interface indirections down to the
// concrete value, matching the reflect-dereferencing idiom in
// go-goods-tmpl's executer.go rangeMap/rangeSlice/rangeStruct helpers.
func indirect(v reflect.Value) reflect.Value {
	for {
		if !v.IsValid() {
			return v
		}
		if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
			continue
		}
		return v
	}
}

// Truthy implements spec §4.D's truthiness rule: null, Unresolved,
// false, integer 0, and the empty string are falsy; whitespace strings
// and everything else is truthy. Deliberately broader than
// go-goods-tmpl's truthy() (executer.go), which treats any non-empty
// string (including pure whitespace) the same way but does not
// special-case Unresolved, since that marker did not exist in the
// teacher's value model.
func Truthy(v Value) bool {
	switch v.kind {
	case KindNull, KindUnresolved:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return true
	case KindString, KindRaw:
		return v.s != ""
	case KindList:
		return true
	case KindMap:
		return true
	case KindTime:
		return true
	case KindObject:
		return v.obj != nil
	}
	return false
}

// Stringify renders a Value as it should appear in template output,
// before any HTML escaping is applied.
func Stringify(v Value) string {
	switch v.kind {
	case KindNull, KindUnresolved:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString, KindRaw:
		return v.s
	case KindTime:
		return v.t.Format("2006-01-02 15:04:05Z07:00")
	case KindList:
		parts := make([]string, len(v.list))
		for i, it := range v.list {
			parts[i] = Stringify(it)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + Stringify(v.m[k])
		}
		return "map[" + strings.Join(parts, " ") + "]"
	case KindObject:
		return fmt.Sprint(v.obj)
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
