package tmplx

import (
	"reflect"
	"time"
)

// resolveBinding implements Component C: evaluate a dotted/indexed
// path against the scope chain. Grounded on the reflective
// field-walking idiom in go-goods-tmpl/executer.go's executeRange
// (Kind switch over Map/Slice/Struct, pointer indirection), narrowed
// from "iterate the whole collection" to "read one step."
func (rs *renderState) resolveBinding(b *BindingExpr, scope *Scope) (Value, error) {
	cur, ok := rs.lookupHead(b.Head, scope)
	if !ok {
		cur = Unresolved
	}

	for _, step := range b.Steps {
		if cur.IsNull() || cur.IsUnresolved() {
			return String(""), nil
		}
		next, err := rs.accessStep(cur, step, scope)
		if err != nil {
			return Value{}, err
		}
		cur = next
	}

	if b.MethodCall != "" {
		return Value{}, &BindingExpressionError{Expression: bindingSource(b), Method: b.MethodCall}
	}
	return cur, nil
}

// bindingSource reconstructs the offending source text of a binding
// whose path ends in call syntax, for BindingExpressionError's message.
func bindingSource(b *BindingExpr) string {
	s := b.Head
	for _, step := range b.Steps {
		s += "." + step.Field
	}
	if b.MethodCall != "" {
		s += "." + b.MethodCall + "()"
	}
	return s
}

// lookupHead resolves the head identifier of a binding: the two
// synthetic clock names, then the scope chain outward to Context args
// (spec §4.C step 1).
func (rs *renderState) lookupHead(name string, scope *Scope) (Value, bool) {
	switch name {
	case "now":
		return Time(time.Now()), true
	case "utcNow":
		return Time(time.Now().UTC()), true
	}
	return scope.Lookup(name)
}

func (rs *renderState) accessStep(cur Value, step PathStep, scope *Scope) (Value, error) {
	if step.Field != "" {
		return rs.accessField(cur, step.Field)
	}
	idx, err := rs.evalExpr(step.Index, scope)
	if err != nil {
		return Value{}, err
	}
	return rs.accessIndex(cur, idx)
}

func (rs *renderState) accessField(cur Value, field string) (Value, error) {
	switch cur.Kind() {
	case KindMap:
		if v, ok := cur.MapVal()[field]; ok {
			return v, nil
		}
		return Unresolved, nil
	case KindObject:
		return accessObjectField(cur.ObjVal(), field)
	default:
		return Unresolved, nil
	}
}

func (rs *renderState) accessIndex(cur Value, idx Value) (Value, error) {
	switch cur.Kind() {
	case KindMap:
		if v, ok := cur.MapVal()[Stringify(idx)]; ok {
			return v, nil
		}
		return Unresolved, nil
	case KindList:
		if !idx.IsNumeric() {
			return Unresolved, nil
		}
		i := int(idx.AsFloat64())
		list := cur.ListVal()
		if i < 0 || i >= len(list) {
			return Unresolved, nil
		}
		return list[i], nil
	case KindObject:
		return accessObjectIndex(cur.ObjVal(), idx)
	default:
		return Unresolved, nil
	}
}

// accessObjectField reflectively reads a public field/property of a
// host object. Method invocation is forbidden: if field only names a
// method, a BindingExpressionError aborts the render (spec §4.C, the
// engine's one hard rule).
func accessObjectField(obj interface{}, field string) (Value, error) {
	if !isExported(field) {
		return Unresolved, nil
	}

	raw := reflect.ValueOf(obj)
	if m := raw.MethodByName(field); m.IsValid() {
		return Unresolved, &BindingExpressionError{Expression: field, Method: field}
	}

	rv := indirect(raw)
	if !rv.IsValid() {
		return Unresolved, nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		if fv := rv.FieldByName(field); fv.IsValid() {
			return FromGo(fv.Interface()), nil
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(reflect.ValueOf(field))
			if mv.IsValid() {
				return FromGo(mv.Interface()), nil
			}
		}
	}

	return Unresolved, nil
}

func isExported(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}

func accessObjectIndex(obj interface{}, idx Value) (Value, error) {
	rv := indirect(reflect.ValueOf(obj))
	if !rv.IsValid() {
		return Unresolved, nil
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if !idx.IsNumeric() {
			return Unresolved, nil
		}
		i := int(idx.AsFloat64())
		if i < 0 || i >= rv.Len() {
			return Unresolved, nil
		}
		return FromGo(rv.Index(i).Interface()), nil
	case reflect.Map:
		key := reflect.ValueOf(Stringify(idx))
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(key)
			if mv.IsValid() {
				return FromGo(mv.Interface()), nil
			}
		}
	}
	return Unresolved, nil
}
