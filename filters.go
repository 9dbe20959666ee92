package tmplx

import (
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
)

// FilterFunc is the shape every filter implementation takes: subject
// is the piped-in value (or, in prefix form f(x,a,b), the first
// positional argument), and args holds every argument after it. Both
// invocation forms described in spec §4.D resolve to the same call.
type FilterFunc func(rs *renderState, scope *Scope, subject Value, args []Value) (Value, error)

// filterKey identifies a filter by name and the number of arguments
// after its subject, matching spec §4.D's "(name, arity)" registry
// key. Aliases (greaterThan/gt, if/when, etc.) are stored as duplicate
// entries under the same arity, mirroring go-goods-tmpl/context.go's
// flat map-of-name registration generalized to two keys.
type filterKey struct {
	name  string
	arity int
}

type filterEntry struct {
	fn             FilterFunc
	handlesUnknown bool
}

// FilterRegistry maps (name, arity) to a filter implementation. It is
// frozen after Context.Init; registering afterward is a programming
// error (spec §5).
type FilterRegistry struct {
	entries map[filterKey]filterEntry
	frozen  bool
}

func newFilterRegistry() *FilterRegistry {
	return &FilterRegistry{entries: map[filterKey]filterEntry{}}
}

// NewFilterRegistry creates a standalone registry a host can populate
// and attach to a single PageResult via WithFilters, overriding the
// Context's filters for that render only (spec §3's per-result filter
// list).
func NewFilterRegistry() *FilterRegistry {
	return newFilterRegistry()
}

// Register adds a filter under name at the given arity (the number of
// arguments beyond its subject). handlesUnknown marks a filter as one
// of the few (otherwise, ifTruthy, ifFalsey, and host-registered
// equivalents) that consume Unresolved rather than propagate it.
func (r *FilterRegistry) Register(name string, arity int, handlesUnknown bool, fn FilterFunc) error {
	if r.frozen {
		return fmt.Errorf("tmplx: cannot register filter %q after Init", name)
	}
	key := filterKey{name, arity}
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("tmplx: filter %q already registered at arity %d", name, arity)
	}
	r.entries[key] = filterEntry{fn: fn, handlesUnknown: handlesUnknown}
	return nil
}

// RegisterAlias registers name2 as sharing name1's implementation at
// the given arity (e.g. gt as an alias of greaterThan).
func (r *FilterRegistry) RegisterAlias(name1, name2 string, arity int) error {
	key := filterKey{name1, arity}
	entry, ok := r.entries[key]
	if !ok {
		return fmt.Errorf("tmplx: cannot alias unknown filter %q", name1)
	}
	return r.Register(name2, arity, entry.handlesUnknown, entry.fn)
}

func (r *FilterRegistry) lookup(name string, arity int) (filterEntry, bool) {
	e, ok := r.entries[filterKey{name, arity}]
	return e, ok
}

func (r *FilterRegistry) freeze() {
	r.frozen = true
}

// invokeChained evaluates one link of a Placeholder's filter chain:
// subject was produced by the previous link (or the head), args are
// evaluated fresh from the AST each time.
func (rs *renderState) invokeChained(call *FilterCallExpr, subject Value, scope *Scope) (Value, error) {
	args, err := rs.evalArgs(call.Args, scope)
	if err != nil {
		return Value{}, err
	}
	return rs.call(call.Name, subject, args, scope)
}

// invokePrefix evaluates a filter called with no piped subject
// (f(x,a,b)); the first positional argument stands in for the subject,
// per spec §4.D's "two invocation forms are syntactically equivalent."
func (rs *renderState) invokePrefix(call *FilterCallExpr, scope *Scope) (Value, error) {
	args, err := rs.evalArgs(call.Args, scope)
	if err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return rs.call(call.Name, Unresolved, nil, scope)
	}
	return rs.call(call.Name, args[0], args[1:], scope)
}

func (rs *renderState) evalArgs(exprs []Expr, scope *Scope) ([]Value, error) {
	args := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := rs.evalExpr(e, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (rs *renderState) call(name string, subject Value, args []Value, scope *Scope) (Value, error) {
	entry, ok := filterEntry{}, false
	if rs.result != nil && rs.result.Filters != nil {
		entry, ok = rs.result.Filters.lookup(name, len(args))
	}
	if !ok {
		entry, ok = rs.engine.filters.lookup(name, len(args))
	}
	if !ok {
		return Unresolved, nil
	}

	if !entry.handlesUnknown {
		if subject.IsUnresolved() {
			return Unresolved, nil
		}
		for _, a := range args {
			if a.IsUnresolved() {
				return Unresolved, nil
			}
		}
	}

	return rs.invokeSafely(name, entry.fn, scope, subject, args)
}

func (rs *renderState) invokeSafely(name string, fn FilterFunc, scope *Scope, subject Value, args []Value) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			ferr := newFilterError(name, fmt.Errorf("%v", r))
			if !rs.engine.config.LenientFilterErrors {
				err = ferr
				return
			}
			rs.engine.logf(rs.result.RenderID, "filter %q panicked: %v", name, r)
			v, err = String(""), nil
		}
	}()

	v, err = fn(rs, scope, subject, args)
	if err != nil {
		ferr := newFilterError(name, err)
		if !rs.engine.config.LenientFilterErrors {
			return Value{}, ferr
		}
		rs.engine.logf(rs.result.RenderID, "filter %q error: %v", name, err)
		return String(""), nil
	}
	return v, nil
}

// aggregateRegistrationErrors folds a slice of registration errors
// into one reported error using hashicorp/go-multierror, so a host
// registering many filters at Init sees every problem at once instead
// of failing on the first.
func aggregateRegistrationErrors(errs []error) error {
	var result *multierror.Error
	for _, e := range errs {
		if e != nil {
			result = multierror.Append(result, e)
		}
	}
	return result.ErrorOrNil()
}
