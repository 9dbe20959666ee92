package tmplx

// renderState carries everything expression evaluation needs for one
// render: the owning Context (for filters, culture, settings), the
// PageResult being produced, and the set of partials currently being
// rendered, a guard against a partial recursing into itself. It is
// created once per Context.Render call and threaded through binding
// resolution, filter invocation, and the page composer -- the
// generalization of go-goods-tmpl's *context parameter threaded
// through every executer.Execute call.
type renderState struct {
	engine     *Context
	result     *PageResult
	inProgress map[string]bool
}

func newRenderState(engine *Context, result *PageResult) *renderState {
	return &renderState{
		engine:     engine,
		result:     result,
		inProgress: map[string]bool{},
	}
}

// evalExpr evaluates any expression node against scope, returning
// Unresolved (not an error) for unknown names/filters that no
// unknown-handling filter has consumed, and a real error only for
// malformed/forbidden operations (BindingExpressionError, a strict-mode
// FilterError).
func (rs *renderState) evalExpr(e Expr, scope *Scope) (Value, error) {
	switch n := e.(type) {
	case *LiteralExpr:
		return n.Value, nil
	case *BindingExpr:
		return rs.resolveBinding(n, scope)
	case *ObjectExpr:
		m := make(map[string]Value, len(n.Keys))
		for i, k := range n.Keys {
			v, err := rs.evalExpr(n.Values[i], scope)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Map(m), nil
	case *ArrayExpr:
		items := make([]Value, len(n.Items))
		for i, it := range n.Items {
			v, err := rs.evalExpr(it, scope)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items), nil
	case *FilterCallExpr:
		return rs.invokePrefix(n, scope)
	case *chainedExpr:
		head, err := rs.evalExpr(n.head, scope)
		if err != nil {
			return Value{}, err
		}
		return rs.invokeChained(&n.call, head, scope)
	}
	return Unresolved, nil
}

// evalPlaceholder evaluates a fully parsed placeholder: its head then
// its filter chain in left-to-right, left-associative order (spec §8's
// quantified invariant). A malformed placeholder always passes
// through as its original source text.
func (rs *renderState) evalPlaceholder(ph *Placeholder, scope *Scope) (Value, bool, error) {
	if ph.Malformed != nil {
		return Value{}, false, nil
	}

	cur, err := rs.evalExpr(ph.Head, scope)
	if err != nil {
		return Value{}, false, err
	}

	for i := range ph.Chain {
		cur, err = rs.invokeChained(&ph.Chain[i], cur, scope)
		if err != nil {
			return Value{}, false, err
		}
	}

	if cur.IsUnresolved() {
		return Value{}, false, nil
	}
	return cur, true, nil
}
