package tmplx

import (
	"testing"

	"github.com/lindqvist/tmplx/settings"
)

func TestBuiltinStringFilters(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)

	cases := []struct {
		src  string
		want string
	}{
		{`'hello world' | titleCase`, "Hello World"},
		{`'firstName' | humanize`, "First name"},
		{`'first_name' | pascalCase`, "FirstName"},
		{`'first_name' | camelCase`, "firstName"},
		{`'hello' | substring(1, 3)`, "ell"},
		{`'7' | padLeft(3, '0')`, "007"},
		{`'7' | padRight(3, '0')`, "700"},
		{`'ab' | repeating(3)`, "ababab"},
	}
	for _, c := range cases {
		v, ok := evalSource(t, engine, scope, c.src)
		if !ok || v.Str() != c.want {
			t.Errorf("%s: got %+v, ok=%v, want %q", c.src, v, ok, c.want)
		}
	}
}

func TestBuiltinIncrDecr(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("Count", Int(4))

	v, ok := evalSource(t, engine, scope, "Count | incr")
	if !ok || v.Int() != 5 {
		t.Fatalf("got %+v, %v", v, ok)
	}

	v, ok = evalSource(t, engine, scope, "Count | decrBy(2)")
	if !ok || v.Int() != 2 {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestBuiltinCurrencyAndFormat(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("Price", Float(19.99))

	v, ok := evalSource(t, engine, scope, "Price | currency")
	if !ok || v.Str() == "" {
		t.Fatalf("got %+v, %v", v, ok)
	}

	v, ok = evalSource(t, engine, scope, "Price | format")
	if !ok || v.Str() == "" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestBuiltinAppSetting(t *testing.T) {
	engine := New(nil, Config{})
	engine.SetSettings(settings.MapProvider{"siteName": "Acme"})
	if err := engine.Init(); err != nil {
		t.Fatal(err)
	}
	_, scope := newTestRenderState(engine)

	v, ok := evalSource(t, engine, scope, "appSetting('siteName')")
	if !ok || v.Str() != "Acme" {
		t.Fatalf("got %+v, %v", v, ok)
	}

	_, ok = evalSource(t, engine, scope, "appSetting('missing')")
	if ok {
		t.Fatal("expected passthrough for a missing setting")
	}
}

func TestBuiltinAddQueryString(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)

	v, ok := evalSource(t, engine, scope, "'https://example.com/search' | addQueryString({q: 'go'})")
	if !ok || v.Str() != "https://example.com/search?q=go" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestBuiltinIfAndOtherwise(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("LoggedIn", Bool(true))

	v, ok := evalSource(t, engine, scope, "'Welcome back' | if(LoggedIn) | otherwise('Please log in')")
	if !ok || v.Str() != "Welcome back" {
		t.Fatalf("got %+v, %v", v, ok)
	}

	scope.Set("LoggedIn", Bool(false))
	v, ok = evalSource(t, engine, scope, "'Welcome back' | if(LoggedIn) | otherwise('Please log in')")
	if !ok || v.Str() != "Please log in" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestBuiltinTruthyFalsyReturnSubject(t *testing.T) {
	engine := newTestEngine(t)
	_, scope := newTestRenderState(engine)
	scope.Set("Active", Bool(true))

	v, ok := evalSource(t, engine, scope, "'on' | truthy(Active)")
	if !ok || v.Str() != "on" {
		t.Fatalf("got %+v, %v", v, ok)
	}

	_, ok = evalSource(t, engine, scope, "'on' | falsy(Active)")
	if ok {
		t.Fatal("expected passthrough (ok=false) when the condition is truthy but falsy() was asked for")
	}

	v, ok = evalSource(t, engine, scope, "'on' | ifTruthy(Active)")
	if !ok || v.Str() != "on" {
		t.Fatalf("got %+v, %v", v, ok)
	}

	scope.Set("Active", Bool(false))
	v, ok = evalSource(t, engine, scope, "'off' | ifFalsey(Active)")
	if !ok || v.Str() != "off" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}
