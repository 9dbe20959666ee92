package tmplx

import (
	"fmt"

	"github.com/pkg/errors"
)

// TemplateParseError reports a template failure such as an unterminated
// placeholder, invalid front matter, or a page or partial recursing into
// itself; returned from compiling or rendering, it aborts the render.
// The expression parser also records one on Placeholder.Malformed for a
// placeholder that does not parse, and that placeholder is emitted as
// its original source text instead of aborting the render.
type TemplateParseError struct {
	Offset  int
	Message string
	Cause   error
}

func (e *TemplateParseError) Error() string {
	return fmt.Sprintf("tmplx: parse error at offset %d: %s", e.Offset, e.Message)
}

func (e *TemplateParseError) Unwrap() error { return e.Cause }

// PageNotFoundError reports a Context.GetPage call for a page that does
// not exist in the virtual file system. Fatal.
type PageNotFoundError struct {
	Name string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("tmplx: page not found: %q", e.Name)
}

// BindingExpressionError reports an attempt to invoke a method on a
// bound host object, the one hard rule the resolver enforces. Fatal;
// carries the offending expression text.
type BindingExpressionError struct {
	Expression string
	Method     string
}

func (e *BindingExpressionError) Error() string {
	return fmt.Sprintf("tmplx: method invocation forbidden in binding %q (method %q)", e.Expression, e.Method)
}

// FilterError wraps a panic or error raised from inside a filter
// implementation. By default the render aborts; Context.Config.
// LenientFilterErrors=true converts this into empty-string
// substitution instead.
type FilterError struct {
	Filter string
	Cause  error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("tmplx: filter %q failed: %v", e.Filter, e.Cause)
}

func (e *FilterError) Unwrap() error { return e.Cause }

// newFilterError wraps cause with a stack trace via pkg/errors, the way
// other_examples/phihos-haproxy-template-ingress-controller__engine.go
// wraps per-directive evaluation errors.
func newFilterError(name string, cause error) *FilterError {
	return &FilterError{Filter: name, Cause: errors.WithStack(cause)}
}
