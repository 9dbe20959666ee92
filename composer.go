package tmplx

import (
	"html"
	"reflect"
	"strings"
)

// compose implements Component F: it renders a PageResult's page, folds
// the result into a layout if one applies, runs page- and
// output-transformers, and returns the finished string. Grounded on
// go-goods-tmpl/template.go's Template.Execute (backup/restore of a
// shared context around a nested render), generalized from "blocks
// glob-loaded into one context" to "page composed into an independent
// layout scope."
func (c *Context) compose(pr *PageResult) (string, error) {
	if pr.args.parent == nil {
		pr.args.parent = c.args
	}

	rs := newRenderState(c, pr)

	pageScope := pr.args.Child()
	pr.scope = pageScope
	explodeModel(pageScope, pr.Model)
	for k, v := range pr.Page.Args {
		pageScope.Set(k, v)
	}

	body, err := rs.renderTokens(pr.Page.tokens, pageScope)
	if err != nil {
		return "", err
	}

	body, err = pr.Page.Format.Transform(body)
	if err != nil {
		return "", err
	}

	for _, t := range pr.pageTransforms {
		body, err = t(body)
		if err != nil {
			return "", err
		}
	}

	layout := pr.Layout
	if layout == nil {
		var lerr error
		layout, lerr = c.findLayout(pr.Page.Name, pr.Page.Format.Extension)
		if lerr != nil {
			return "", lerr
		}
	}

	out := body
	if layout != nil {
		if layout.Name != "" && layout.Name == pr.Page.Name {
			return "", &TemplateParseError{Message: "page renders into its own layout slot: " + pr.Page.Name}
		}

		layoutScope := pr.args.Child()
		explodeModel(layoutScope, pr.Model)
		for k, v := range layout.Args {
			layoutScope.Set(k, v)
		}
		layoutScope.Set("page", RawString(body))

		out, err = rs.renderTokens(layout.tokens, layoutScope)
		if err != nil {
			return "", err
		}
	}

	for _, t := range pr.outputTransforms {
		out, err = t(pr.ContentType, out)
		if err != nil {
			return "", err
		}
	}

	return out, nil
}

// renderTokens walks a compiled token stream, evaluating each
// placeholder against scope and HTML-escaping the result unless it was
// produced by the raw filter (KindRaw). Unresolved and malformed
// placeholders pass through as their original source text (spec §4.B,
// §9).
func (rs *renderState) renderTokens(toks []pageToken, scope *Scope) (string, error) {
	var b strings.Builder
	for _, tok := range toks {
		if tok.ph == nil {
			b.WriteString(tok.literal)
			continue
		}

		v, ok, err := rs.evalPlaceholder(tok.ph, scope)
		if err != nil {
			return "", err
		}
		if !ok {
			b.WriteString(tok.ph.Source)
			continue
		}
		if v.Kind() == KindRaw {
			b.WriteString(v.Str())
			continue
		}
		b.WriteString(html.EscapeString(Stringify(v)))
	}
	return b.String(), nil
}

// explodeModel binds model under the name "model" and, when it is a
// map or a struct, also binds each of its top-level fields directly so
// both `model.Id` and bare `Id` resolve (spec §4.C's "property
// explosion").
func explodeModel(scope *Scope, model Value) {
	scope.Set("model", model)

	switch model.Kind() {
	case KindMap:
		for k, v := range model.MapVal() {
			scope.Set(k, v)
		}
	case KindObject:
		rv := indirect(reflect.ValueOf(model.ObjVal()))
		if rv.IsValid() && rv.Kind() == reflect.Struct {
			t := rv.Type()
			for i := 0; i < t.NumField(); i++ {
				f := t.Field(i)
				if !isExported(f.Name) {
					continue
				}
				scope.Set(f.Name, FromGo(rv.Field(i).Interface()))
			}
		}
	}
}

// renderPartial compiles (or fetches) name as a page and renders it
// into a scope that is a child of the caller's scope rather than of
// the Context (spec §9's design note: "a partial's frame is a child of
// the caller's frame, not the Context").
func (rs *renderState) renderPartial(name string, callerScope *Scope, args Value) (Value, error) {
	if rs.inProgress[name] {
		return Value{}, &TemplateParseError{Message: "partial recursion detected: " + name}
	}

	page, err := rs.engine.GetPage(name)
	if err != nil {
		return Value{}, err
	}

	rs.inProgress[name] = true
	defer delete(rs.inProgress, name)

	partialScope := callerScope.Child()
	explodeModel(partialScope, args)
	for k, v := range page.Args {
		partialScope.Set(k, v)
	}

	out, err := rs.renderTokens(page.tokens, partialScope)
	if err != nil {
		return Value{}, err
	}
	return RawString(out), nil
}
