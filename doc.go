/*
Package tmplx implements a moustache-style placeholder templating
engine with a Unix-pipeline style filter chain.

Tmplx renders text containing `{{ ... }}` placeholders against a scope
of named values. A placeholder is a head term (a literal, a dotted
binding path, an object/array literal, or a filter call) optionally
followed by a chain of filters applied left to right with `|`:

	Hello, {{ Name | upper }}!

Filters accept extra arguments and can also be called prefix-style with
no piped subject:

	{{ add(1, 2) }}
	{{ 1 | add(2) }}

Bindings

A binding is a dotted/indexed path resolved against a chain of scope
frames: the current page's local frame, its PageResult args, and the
Context's default args. Two names are always available: now and
utcNow. If a page's Model is an object, its top level fields are also
reachable unqualified (so Id and model.Id both work).

A mid-path nil dereference resolves to the empty string rather than
failing; an unresolved name or filter call is not an error either — the
original {{ ... }} source is emitted verbatim unless a filter declared
to handle unknowns consumes it (see the otherwise filter). A
placeholder whose contents do not parse is emitted verbatim the same
way. A render is aborted by an unterminated placeholder, an attempt to
invoke a method on a bound object, a missing page, or a failing filter
(unless Config.LenientFilterErrors is set).

Pages, layouts, and partials

A Page pairs parsed template source with a page format inferred from
its file extension. Rendering a PageResult wraps the page in its
resolved layout (explicit, or the nearest _layout.<ext> file above it),
and the partial filter lets one page pull in another with its own
scope frame:

	{{ partial('nav', {active: Section}) }}

Filters

The default filter library covers string case conversion, arithmetic,
comparisons, conditionals, date/currency formatting, forEach, and
partial composition; registerBuiltins in builtins.go registers them all. Hosts
register additional filters through Context.RegisterFilter before
calling Context.Init, after which the registry is frozen.

Concurrency

A Context is safe to render against concurrently once Init has
returned; PageResult state is never shared between renders. See
Context.GetPage's doc comment for the FilePage cache's concurrency contract.
*/
package tmplx
