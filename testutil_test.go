package tmplx

import "testing"

// newTestEngine builds a Context with the default filter library
// registered and no backing file system, suitable for tests that
// evaluate expressions directly rather than composing whole pages.
func newTestEngine(t *testing.T) *Context {
	t.Helper()
	c := New(nil, Config{DefaultCulture: "en-US"})
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c
}

// newTestRenderState builds a renderState with a fresh scope rooted at
// the engine's args frame, without going through the page composer.
func newTestRenderState(engine *Context) (*renderState, *Scope) {
	pr := &PageResult{args: engine.args.Child()}
	pr.scope = pr.args
	rs := newRenderState(engine, pr)
	return rs, pr.scope
}
