package tmplx

// Expr is any node in a parsed placeholder expression tree: a literal,
// a binding path, an object/array literal, or a filter call.
type Expr interface {
	exprNode()
}

// LiteralExpr is a scalar constant: number, string, bool, or null.
type LiteralExpr struct {
	Value Value
}

func (*LiteralExpr) exprNode() {}

// PathStep is one step in a BindingExpr: either a .field access or an
// [expr] index access.
type PathStep struct {
	Field string // set for a .field step
	Index Expr   // set for an [expr] step
}

// BindingExpr is a dotted/indexed variable path, e.g. foo.bar[0].
// MethodCall is set when the source used call syntax on a path step
// (e.g. model.GetName()); the binding parses cleanly but resolving it
// is a fatal BindingExpressionError, per the engine's method-invocation
// ban.
type BindingExpr struct {
	Head       string
	Steps      []PathStep
	MethodCall string
}

func (*BindingExpr) exprNode() {}

// ObjectExpr is an object literal, e.g. {active: Section, n: 1}.
type ObjectExpr struct {
	Keys   []string
	Values []Expr
}

func (*ObjectExpr) exprNode() {}

// ArrayExpr is an array literal, e.g. [1, 2, foo].
type ArrayExpr struct {
	Items []Expr
}

func (*ArrayExpr) exprNode() {}

// FilterCallExpr is a named filter invocation with positional
// arguments: either standalone in prefix form (f(a,b)), where Args
// holds every argument, or as a link in a Placeholder's Chain, where
// the piped-in subject is threaded in by the evaluator rather than
// stored on the node.
type FilterCallExpr struct {
	Name string
	Args []Expr
}

func (*FilterCallExpr) exprNode() {}

// Placeholder is the fully parsed contents of one {{ ... }} span: a
// head expression followed by zero or more chained filter calls,
// together with the original source text for passthrough rendering.
type Placeholder struct {
	Head      Expr
	Chain     []FilterCallExpr
	Source    string // the full "{{ ... }}" text, for Unresolved passthrough
	Malformed error  // non-nil if parsing failed; the placeholder passes through as literal text
}
