package tmplx

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PageFormat pairs a file extension with the transform its body needs
// before composition (e.g. Markdown -> HTML), per spec §6. The
// transform itself (a real Markdown renderer, say) is a host concern;
// the registry only carries the (extension, transform) pair.
type PageFormat struct {
	Extension string
	Transform func(string) (string, error)
}

func identityFormat(ext string) PageFormat {
	return PageFormat{Extension: ext, Transform: func(s string) (string, error) { return s, nil }}
}

// pageToken is one compiled piece of a page's template body: either
// literal text or a parsed placeholder.
type pageToken struct {
	literal string
	ph      *Placeholder
}

// Page pairs template source with its parsed token stream, declared
// format, and front-matter args (spec §3). FilePages are named and
// cache-eligible; OneTimePages are ephemeral and never touch the
// Context's page cache. Grounded on go-goods-tmpl/template.go's
// Template (base file + cached *parseTree), split into the two
// flavors the spec names explicitly.
type Page struct {
	Name       string
	Format     PageFormat
	Args       map[string]Value // decoded from front matter, if any
	FileBacked bool

	tokens  []pageToken
	modTime time.Time
}

// compilePage parses source into a Page, extracting an optional YAML
// front-matter header (the "---\n...\n---\n" convention, decoded with
// gopkg.in/yaml.v3 the way neurodesk-builder/main.go decodes its own
// recipe manifests).
func compilePage(name string, source string, format PageFormat) (*Page, error) {
	body, front, err := splitFrontMatter(source)
	if err != nil {
		return nil, &TemplateParseError{Message: "invalid front matter: " + err.Error(), Cause: err}
	}

	segs, err := lex(body)
	if err != nil {
		return nil, err
	}

	toks := make([]pageToken, 0, len(segs))
	for _, s := range segs {
		if s.typ == segLiteral {
			toks = append(toks, pageToken{literal: s.text})
			continue
		}
		toks = append(toks, pageToken{ph: parsePlaceholder(s.text, s.raw)})
	}

	return &Page{
		Name:   name,
		Format: format,
		Args:   front,
		tokens: toks,
	}, nil
}

func splitFrontMatter(source string) (body string, args map[string]Value, err error) {
	const fence = "---"
	if !strings.HasPrefix(source, fence+"\n") {
		return source, nil, nil
	}

	rest := source[len(fence)+1:]
	end := strings.Index(rest, "\n"+fence)
	if end < 0 {
		return source, nil, nil
	}

	raw := rest[:end]
	afterIdx := end + len("\n"+fence)
	remainder := rest[afterIdx:]
	remainder = strings.TrimPrefix(remainder, "\n")

	var decoded map[string]interface{}
	if err := yaml.Unmarshal([]byte(raw), &decoded); err != nil {
		return "", nil, err
	}

	args = make(map[string]Value, len(decoded))
	for k, v := range decoded {
		args[k] = FromGo(v)
	}
	return remainder, args, nil
}

// pageFormatForName infers a PageFormat from name's extension, falling
// back to an identity transform when the extension is unregistered.
func pageFormatForName(name string, registry map[string]PageFormat) PageFormat {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if f, ok := registry[ext]; ok {
		return f
	}
	return identityFormat(ext)
}

// PageResult is one render invocation: a page, an optional layout, a
// Model, a local args frame, transformer lists, and a content-type
// hint. Single-use; its args frame is discarded after rendering (spec
// §3 Lifecycles).
type PageResult struct {
	Page        *Page
	Layout      *Page
	Model       Value
	ContentType string
	RenderID    string

	Filters *FilterRegistry // per-result override; nil uses the Context's registry

	outputTransforms []func(contentType, body string) (string, error)
	pageTransforms   []func(body string) (string, error)

	args  *Scope // PageResult-local args frame
	scope *Scope // page-local frame, a child of args; populated at render time
}

// NewPageResult starts a render of page with an empty Model and
// content type text/html.
func NewPageResult(page *Page) *PageResult {
	return &PageResult{
		Page:        page,
		Model:       Null,
		ContentType: "text/html",
		RenderID:    uuid.NewString(),
		args:        NewScope(),
	}
}

func (pr *PageResult) WithLayout(layout *Page) *PageResult {
	pr.Layout = layout
	return pr
}

func (pr *PageResult) WithModel(model Value) *PageResult {
	pr.Model = model
	return pr
}

func (pr *PageResult) SetArg(name string, v Value) *PageResult {
	pr.args.Set(name, v)
	return pr
}

func (pr *PageResult) WithContentType(ct string) *PageResult {
	pr.ContentType = ct
	return pr
}

// WithFilters overrides the filter registry used for this render only,
// falling back to the Context's registry for any (name, arity) the
// override does not itself define -- construct reg via
// NewFilterRegistry and Register the entries this render needs to add
// or shadow.
func (pr *PageResult) WithFilters(reg *FilterRegistry) *PageResult {
	pr.Filters = reg
	return pr
}

func (pr *PageResult) AddOutputTransform(fn func(contentType, body string) (string, error)) *PageResult {
	pr.outputTransforms = append(pr.outputTransforms, fn)
	return pr
}

func (pr *PageResult) AddPageTransform(fn func(body string) (string, error)) *PageResult {
	pr.pageTransforms = append(pr.pageTransforms, fn)
	return pr
}
