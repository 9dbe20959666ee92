package tmplx

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/lindqvist/tmplx/culture"
)

// Default dateFormat/dateTimeFormat layouts (Go reference-time form)
// when no explicit fmt argument is given.
const (
	defaultDateLayout     = "2006-01-02"
	defaultDateTimeLayout = "2006-01-02 15:04:05Z07:00"
)

// registerBuiltins wires spec §4.D's default filter library into reg,
// closing over the owning Context for the filters (appSetting, format,
// currency, partial) that need a host collaborator. Grounded on
// go-goods-tmpl/executer.go's inline filter-ish helpers (truthy,
// rangeMap/rangeSlice) generalized into named, registry-driven
// entries, since the teacher has no filter concept of its own to copy
// wholesale.
func registerBuiltins(reg *FilterRegistry, engine *Context) error {
	var errs []error
	reg1 := func(name string, arity int, handlesUnknown bool, fn FilterFunc) {
		errs = append(errs, reg.Register(name, arity, handlesUnknown, fn))
	}
	alias := func(name1, name2 string, arity int) {
		errs = append(errs, reg.RegisterAlias(name1, name2, arity))
	}

	reg1("raw", 0, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return RawString(Stringify(subject)), nil
	})

	reg1("json", 0, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		enc, err := json.Marshal(valueToGo(subject))
		if err != nil {
			return Value{}, err
		}
		return RawString(string(enc)), nil
	})

	reg1("appSetting", 0, true, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if subject.IsUnresolved() {
			return Unresolved, nil
		}
		v, ok := engine.settings.Get(Stringify(subject))
		if !ok {
			return Unresolved, nil
		}
		return String(v), nil
	})

	registerArithmetic(reg1)
	registerComparisons(reg1, alias)
	registerLogical(reg1, alias)
	registerStrings(reg1)
	registerFormatting(reg1, engine)

	forEachFn := func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if args[0].Kind() != KindList {
			return Unresolved, nil
		}
		varName := "it"
		if len(args) > 1 {
			varName = Stringify(args[1])
		}

		fragment := Stringify(subject)
		segs, err := lex(fragment)
		if err != nil {
			return Value{}, err
		}
		toks := make([]pageToken, 0, len(segs))
		for _, s := range segs {
			if s.typ == segLiteral {
				toks = append(toks, pageToken{literal: s.text})
				continue
			}
			toks = append(toks, pageToken{ph: parsePlaceholder(s.text, s.raw)})
		}

		var b strings.Builder
		for _, item := range args[0].ListVal() {
			itemScope := scope.Child()
			explodeModel(itemScope, item)
			itemScope.Set(varName, item)
			out, err := rs.renderTokens(toks, itemScope)
			if err != nil {
				return Value{}, err
			}
			b.WriteString(out)
		}
		return RawString(b.String()), nil
	}
	reg1("forEach", 1, false, forEachFn)
	reg1("forEach", 2, false, forEachFn)

	reg1("partial", 0, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return rs.renderPartial(Stringify(subject), scope, Null)
	})
	reg1("partial", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return rs.renderPartial(Stringify(subject), scope, args[0])
	})

	reg1("addQueryString", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return addURLParams(subject, args[0], false)
	})
	reg1("addHashParams", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return addURLParams(subject, args[0], true)
	})

	return aggregateRegistrationErrors(errs)
}

func registerArithmetic(reg1 func(string, int, bool, FilterFunc)) {
	binaryNumeric := func(name string, op func(a, b Value) (Value, error)) {
		reg1(name, 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
			if !subject.IsNumeric() || !args[0].IsNumeric() {
				return Unresolved, nil
			}
			return op(subject, args[0])
		})
	}

	binaryNumeric("add", func(a, b Value) (Value, error) { return addValues(a, b), nil })
	binaryNumeric("sub", func(a, b Value) (Value, error) { return subValues(a, b), nil })
	binaryNumeric("subtract", func(a, b Value) (Value, error) { return subValues(a, b), nil })
	binaryNumeric("mul", func(a, b Value) (Value, error) { return mulValues(a, b), nil })
	binaryNumeric("multiply", func(a, b Value) (Value, error) { return mulValues(a, b), nil })
	binaryNumeric("div", divValues)
	binaryNumeric("divide", divValues)

	reg1("incr", 0, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if !subject.IsNumeric() {
			return Unresolved, nil
		}
		return addValues(subject, Int(1)), nil
	})
	reg1("decr", 0, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if !subject.IsNumeric() {
			return Unresolved, nil
		}
		return subValues(subject, Int(1)), nil
	})
	reg1("incrBy", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if !subject.IsNumeric() || !args[0].IsNumeric() {
			return Unresolved, nil
		}
		return addValues(subject, args[0]), nil
	})
	reg1("decrBy", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if !subject.IsNumeric() || !args[0].IsNumeric() {
			return Unresolved, nil
		}
		return subValues(subject, args[0]), nil
	})
}

func bothInt(a, b Value) bool { return a.Kind() == KindInt && b.Kind() == KindInt }

func addValues(a, b Value) Value {
	if bothInt(a, b) {
		return Int(a.Int() + b.Int())
	}
	return Float(a.AsFloat64() + b.AsFloat64())
}

func subValues(a, b Value) Value {
	if bothInt(a, b) {
		return Int(a.Int() - b.Int())
	}
	return Float(a.AsFloat64() - b.AsFloat64())
}

func mulValues(a, b Value) Value {
	if bothInt(a, b) {
		return Int(a.Int() * b.Int())
	}
	return Float(a.AsFloat64() * b.AsFloat64())
}

// divValues divides a by b, staying an integer only when both operands
// are integers and the division is exact; otherwise it widens to float
// (the Open Question decision recorded in the design ledger).
func divValues(a, b Value) (Value, error) {
	if b.AsFloat64() == 0 {
		return Value{}, fmt.Errorf("division by zero")
	}
	if bothInt(a, b) && a.Int()%b.Int() == 0 {
		return Int(a.Int() / b.Int()), nil
	}
	return Float(a.AsFloat64() / b.AsFloat64()), nil
}

func registerComparisons(reg1 func(string, int, bool, FilterFunc), alias func(string, string, int)) {
	cmp := func(name string, pass func(int) bool) {
		reg1(name, 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
			c, ok := compareValues(subject, args[0])
			if !ok {
				return Unresolved, nil
			}
			return Bool(pass(c)), nil
		})
	}

	cmp("greaterThan", func(c int) bool { return c > 0 })
	cmp("greaterThanEqual", func(c int) bool { return c >= 0 })
	cmp("lessThan", func(c int) bool { return c < 0 })
	cmp("lessThanEqual", func(c int) bool { return c <= 0 })
	alias("greaterThan", "gt", 1)
	alias("greaterThanEqual", "gte", 1)
	alias("lessThan", "lt", 1)
	alias("lessThanEqual", "lte", 1)

	reg1("equals", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return Bool(valuesEqual(subject, args[0])), nil
	})
	alias("equals", "eq", 1)
	reg1("notEquals", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return Bool(!valuesEqual(subject, args[0])), nil
	})
	alias("notEquals", "not", 1)
}

func valuesEqual(a, b Value) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return Stringify(a) == Stringify(b)
}

// compareValues orders a and b: numerically if both are numeric,
// chronologically if either is a Time (parsing the other side as a
// date via culture.ParseDate when it is a string), and lexically for
// two plain strings. Returns ok=false when the two sides are not
// comparable, matching spec §4.D's coercion rule for comparison
// filters.
func compareValues(a, b Value) (int, bool) {
	if a.IsNumeric() && b.IsNumeric() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		return cmpFloat(af, bf), true
	}
	if a.Kind() == KindTime || b.Kind() == KindTime {
		at, aok := toComparableTime(a)
		bt, bok := toComparableTime(b)
		if aok && bok {
			return cmpTime(at, bt), true
		}
		return 0, false
	}
	if a.Kind() == KindString && b.Kind() == KindString {
		return strings.Compare(a.Str(), b.Str()), true
	}
	return 0, false
}

func toComparableTime(v Value) (time.Time, bool) {
	if v.Kind() == KindTime {
		return v.TimeVal(), true
	}
	if v.Kind() == KindString {
		if t, err := culture.ParseDate(v.Str()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func registerLogical(reg1 func(string, int, bool, FilterFunc), alias func(string, string, int)) {
	reg1("and", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return Bool(Truthy(subject) && Truthy(args[0])), nil
	})
	reg1("or", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return Bool(Truthy(subject) || Truthy(args[0])), nil
	})

	reg1("if", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if Truthy(args[0]) {
			return subject, nil
		}
		return Unresolved, nil
	})
	reg1("ifNot", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if !Truthy(args[0]) {
			return subject, nil
		}
		return Unresolved, nil
	})
	alias("if", "when", 1)
	alias("ifNot", "unless", 1)

	reg1("otherwise", 1, true, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if subject.IsUnresolved() {
			return args[0], nil
		}
		return subject, nil
	})
	alias("otherwise", "else", 1)

	truthyGate := func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if Truthy(args[0]) {
			return subject, nil
		}
		return Unresolved, nil
	}
	falsyGate := func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if !Truthy(args[0]) {
			return subject, nil
		}
		return Unresolved, nil
	}
	reg1("truthy", 1, true, truthyGate)
	reg1("falsy", 1, true, falsyGate)
	reg1("ifTruthy", 1, true, truthyGate)
	reg1("ifFalsey", 1, true, falsyGate)
}

func registerStrings(reg1 func(string, int, bool, FilterFunc)) {
	unary := func(name string, fn func(string) string) {
		reg1(name, 0, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
			return String(fn(Stringify(subject))), nil
		})
	}

	unary("lower", strings.ToLower)
	unary("upper", strings.ToUpper)
	unary("titleCase", titleCase)
	unary("humanize", humanize)
	unary("pascalCase", pascalCase)
	unary("camelCase", camelCase)

	reg1("substring", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return substring(Stringify(subject), int(args[0].AsFloat64()), -1), nil
	})
	reg1("substring", 2, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return substring(Stringify(subject), int(args[0].AsFloat64()), int(args[1].AsFloat64())), nil
	})

	pad := func(name string, left bool) {
		reg1(name, 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
			return padValue(Stringify(subject), int(args[0].AsFloat64()), " ", left), nil
		})
		reg1(name, 2, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
			return padValue(Stringify(subject), int(args[0].AsFloat64()), Stringify(args[1]), left), nil
		})
	}
	pad("padLeft", true)
	pad("padRight", false)

	reg1("repeating", 1, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		n := int(args[0].AsFloat64())
		if n < 0 {
			n = 0
		}
		return String(strings.Repeat(Stringify(subject), n)), nil
	})
}

func substring(s string, start, length int) Value {
	r := []rune(s)
	if start < 0 {
		start = 0
	}
	if start > len(r) {
		start = len(r)
	}
	end := len(r)
	if length >= 0 && start+length < end {
		end = start + length
	}
	return String(string(r[start:end]))
}

func padValue(s string, width int, pad string, left bool) Value {
	if pad == "" {
		pad = " "
	}
	need := width - len([]rune(s))
	if need <= 0 {
		return String(s)
	}
	fill := strings.Repeat(pad, need/len([]rune(pad))+1)
	fill = string([]rune(fill)[:need])
	if left {
		return String(fill + s)
	}
	return String(s + fill)
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r := []rune(f)
		r[0] = unicode.ToUpper(r[0])
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}

// humanize turns a PascalCase/camelCase/snake_case identifier into
// space-separated words, e.g. "firstName" -> "First name".
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return out
	}
	r := []rune(strings.ToLower(out))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func pascalCase(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, "")
}

func camelCase(s string) string {
	p := pascalCase(s)
	if p == "" {
		return p
	}
	return strings.ToLower(p[:1]) + p[1:]
}

func splitWords(s string) []string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.Fields(b.String())
}

func registerFormatting(reg1 func(string, int, bool, FilterFunc), engine *Context) {
	cultureFor := func(args []Value, idx int) string {
		if len(args) > idx {
			return Stringify(args[idx])
		}
		return engine.config.DefaultCulture
	}

	reg1("format", 0, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if !subject.IsNumeric() {
			return Unresolved, nil
		}
		return String(engine.culture.FormatNumber(engine.config.DefaultCulture, subject.AsFloat64())), nil
	})
	formatWithPattern := func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if !subject.IsNumeric() {
			return Unresolved, nil
		}
		pattern := Stringify(args[0])
		return String(engine.culture.FormatPattern(cultureFor(args, 1), pattern, subject.AsFloat64())), nil
	}
	reg1("format", 1, false, formatWithPattern)
	reg1("format", 2, false, formatWithPattern)

	dateFn := func(defaultLayout string) FilterFunc {
		return func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
			if subject.Kind() != KindTime {
				return Unresolved, nil
			}
			layout := defaultLayout
			if len(args) > 0 {
				layout = Stringify(args[0])
			}
			return String(engine.culture.FormatDate(cultureFor(args, 1), subject.TimeVal(), layout)), nil
		}
	}
	dateOnly := dateFn(defaultDateLayout)
	reg1("dateFormat", 0, false, dateOnly)
	reg1("dateFormat", 1, false, dateOnly)
	reg1("dateFormat", 2, false, dateOnly)
	dateTime := dateFn(defaultDateTimeLayout)
	reg1("dateTimeFormat", 0, false, dateTime)
	reg1("dateTimeFormat", 1, false, dateTime)
	reg1("dateTimeFormat", 2, false, dateTime)

	currencyFn := func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		if !subject.IsNumeric() {
			return Unresolved, nil
		}
		return String(engine.culture.FormatCurrency(cultureFor(args, 0), subject.AsFloat64())), nil
	}
	reg1("currency", 0, false, currencyFn)
	reg1("currency", 1, false, currencyFn)
}

// valueToGo unwraps a Value tree into plain Go types suitable for
// encoding/json, mirroring FromGo's reflection walk in reverse.
func valueToGo(v Value) interface{} {
	switch v.Kind() {
	case KindNull, KindUnresolved:
		return nil
	case KindBool:
		return v.Bool()
	case KindInt:
		return v.Int()
	case KindFloat:
		return v.Float()
	case KindString, KindRaw:
		return v.Str()
	case KindTime:
		return v.TimeVal().Format(time.RFC3339)
	case KindList:
		out := make([]interface{}, len(v.ListVal()))
		for i, it := range v.ListVal() {
			out[i] = valueToGo(it)
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.MapVal()))
		for k, it := range v.MapVal() {
			out[k] = valueToGo(it)
		}
		return out
	case KindObject:
		return v.ObjVal()
	}
	return nil
}

func addURLParams(subject, params Value, asHash bool) (Value, error) {
	raw := Stringify(subject)
	u, err := url.Parse(raw)
	if err != nil {
		return Value{}, err
	}

	values := url.Values{}
	if asHash {
		if u.Fragment != "" {
			if existing, err := url.ParseQuery(u.Fragment); err == nil {
				values = existing
			}
		}
	} else {
		values = u.Query()
	}

	if params.Kind() == KindMap {
		for k, v := range params.MapVal() {
			values.Set(k, Stringify(v))
		}
	}

	encoded := values.Encode()
	if asHash {
		u.Fragment = encoded
	} else {
		u.RawQuery = encoded
	}
	return String(u.String()), nil
}
