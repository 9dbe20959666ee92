package tmplx

import "testing"

func evalSource(t *testing.T, engine *Context, scope *Scope, src string) (Value, bool) {
	t.Helper()
	ph := parsePlaceholder(src, "{{ "+src+" }}")
	if ph.Malformed != nil {
		t.Fatalf("malformed: %v", ph.Malformed)
	}
	rs, _ := newTestRenderState(engine)
	v, ok, err := rs.evalPlaceholder(ph, scope)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	return v, ok
}

func TestFilterUpperAndChain(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("Name", String("ada"))

	v, ok := evalSource(t, engine, scope, "Name | upper")
	if !ok || v.Str() != "ADA" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestFilterPrefixArithmetic(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)

	v, ok := evalSource(t, engine, scope, "add(1, 2)")
	if !ok || v.Int() != 3 {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestFilterDivisionWidensToFloatWhenInexact(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)

	v, ok := evalSource(t, engine, scope, "div(1, 2)")
	if !ok || v.Kind() != KindFloat || v.Float() != 0.5 {
		t.Fatalf("got %+v, %v", v, ok)
	}

	v, ok = evalSource(t, engine, scope, "div(4, 2)")
	if !ok || v.Kind() != KindInt || v.Int() != 2 {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestFilterUnknownNamePassesThrough(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("Name", String("ada"))

	_, ok := evalSource(t, engine, scope, "Name | frobnicate")
	if ok {
		t.Fatal("expected passthrough (ok=false)")
	}
}

func TestFilterOtherwiseCatchesUnresolved(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)

	v, ok := evalSource(t, engine, scope, "Missing | otherwise('fallback')")
	if !ok || v.Str() != "fallback" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestFilterEqualsAndComparisons(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)

	v, ok := evalSource(t, engine, scope, "equals(1, 1)")
	if !ok || !v.Bool() {
		t.Fatalf("got %+v, %v", v, ok)
	}

	v, ok = evalSource(t, engine, scope, "greaterThan(3, 2)")
	if !ok || !v.Bool() {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestFilterRawMarksValueUnescaped(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("Html", String("<b>x</b>"))

	v, ok := evalSource(t, engine, scope, "Html | raw")
	if !ok || v.Kind() != KindRaw || v.Str() != "<b>x</b>" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestFilterJSON(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("Nums", List([]Value{Int(1), Int(2)}))

	v, ok := evalSource(t, engine, scope, "Nums | json")
	if !ok || v.Kind() != KindRaw || v.Str() != "[1,2]" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestFilterJSONRenderedUnescaped(t *testing.T) {
	c := newComposerTestEngine(t)
	page, err := c.OneTimePage("home.html", `var m = {{ model | json }};`)
	if err != nil {
		t.Fatal(err)
	}
	pr := NewPageResult(page).WithModel(Map(map[string]Value{"Id": Int(1), "Name": String("foo")}))

	out, err := c.Render(pr)
	if err != nil {
		t.Fatal(err)
	}
	if out != `var m = {"Id":1,"Name":"foo"};` {
		t.Fatalf("got %q, expected literal double-quotes unescaped", out)
	}
}

func TestFilterForEach(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("Items", List([]Value{String("a"), String("b")}))

	v, ok := evalSource(t, engine, scope, "'[{{ it }}]' | forEach(Items)")
	if !ok || v.Kind() != KindRaw || v.Str() != "[a][b]" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestFilterForEachCustomVarName(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("Items", List([]Value{String("a"), String("b")}))

	v, ok := evalSource(t, engine, scope, "'[{{ letter }}]' | forEach(Items, 'letter')")
	if !ok || v.Kind() != KindRaw || v.Str() != "[a][b]" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestPageResultFiltersOverridesForOneRender(t *testing.T) {
	c := newComposerTestEngine(t)
	page, err := c.OneTimePage("home.html", `{{ Name | shout }}`)
	if err != nil {
		t.Fatal(err)
	}

	reg := NewFilterRegistry()
	if err := reg.Register("shout", 0, false, func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) {
		return String(subject.Str() + "!!!"), nil
	}); err != nil {
		t.Fatal(err)
	}

	pr := NewPageResult(page).
		WithModel(Map(map[string]Value{"Name": String("hi")})).
		WithFilters(reg)

	out, err := c.Render(pr)
	if err != nil {
		t.Fatal(err)
	}
	if out != "hi!!!" {
		t.Fatalf("got %q, expected the per-result filter override to apply", out)
	}

	// A second render without the override falls back to the Context's
	// registry, where "shout" is unknown and passes through.
	pr2 := NewPageResult(page).WithModel(Map(map[string]Value{"Name": String("hi")}))
	out2, err := c.Render(pr2)
	if err != nil {
		t.Fatal(err)
	}
	if out2 != `{{ Name | shout }}` {
		t.Fatalf("got %q, expected passthrough without the override", out2)
	}
}

func TestFilterRegistryRejectsDuplicate(t *testing.T) {
	reg := newFilterRegistry()
	fn := func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) { return subject, nil }
	if err := reg.Register("dup", 0, false, fn); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register("dup", 0, false, fn); err == nil {
		t.Fatal("expected an error for duplicate registration")
	}
}

func TestFilterRegistryFrozenAfterInit(t *testing.T) {
	reg := newFilterRegistry()
	reg.freeze()
	fn := func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error) { return subject, nil }
	if err := reg.Register("x", 0, false, fn); err == nil {
		t.Fatal("expected an error registering after freeze")
	}
}
