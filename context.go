package tmplx

import (
	"fmt"
	"log/slog"
	"path"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/lindqvist/tmplx/culture"
	"github.com/lindqvist/tmplx/settings"
	"github.com/lindqvist/tmplx/vfs"
)

// Mode governs whether compiled pages are cached (Production) or
// reloaded from the file system on every GetPage call (Development).
// Grounded on go-goods-tmpl/template.go's identically named Mode type
// and its cache-vs-recompile branch in treeFor, generalized from a
// package-level channel-guarded global to a field on Context so
// multiple engines in one process can run different modes.
type Mode bool

const (
	Development Mode = false
	Production  Mode = true
)

func (m Mode) String() string {
	if bool(m) {
		return "Production"
	}
	return "Development"
}

// Config holds the settings a Context is constructed with.
type Config struct {
	Mode           Mode
	DefaultCulture string

	// LenientFilterErrors, when true, converts a filter panic or error
	// into empty-string substitution instead of aborting the render.
	// The zero value keeps the safer default: a render fails loudly on
	// a broken filter rather than silently emitting empty output.
	LenientFilterErrors bool
}

// Context is the engine: it owns the filter registry, the page-format
// registry, the compiled-page cache, and the host collaborators
// (virtual file system, culture, settings) that default filters and
// the composer call into. One Context is normally built at startup,
// configured via Register*/Set* calls, then frozen with Init.
type Context struct {
	fs       vfs.FileSystem
	culture  culture.Culture
	settings settings.Provider
	config   Config
	logger   *slog.Logger

	filters     *FilterRegistry
	pageFormats map[string]PageFormat

	cacheMu sync.RWMutex
	cache   map[string]*Page
	group   singleflight.Group

	args        *Scope
	initialized bool
}

// New builds a Context reading pages from fs. Culture defaults to
// culture.Default{} and settings to an env-backed provider; both can
// be overridden with SetCulture/SetSettings before Init.
func New(fs vfs.FileSystem, config Config) *Context {
	return &Context{
		fs:          fs,
		culture:     culture.Default{},
		settings:    settings.Chain{settings.EnvProvider{}},
		config:      config,
		logger:      slog.Default(),
		filters:     newFilterRegistry(),
		pageFormats: map[string]PageFormat{},
		cache:       map[string]*Page{},
		args:        NewScope(),
	}
}

func (c *Context) SetCulture(cu culture.Culture) { c.culture = cu }
func (c *Context) SetSettings(sp settings.Provider) { c.settings = sp }
func (c *Context) SetLogger(l *slog.Logger)      { c.logger = l }

// SetArg binds a name visible to every page and layout rendered by
// this Context, the outermost frame in the scope chain (spec §3).
func (c *Context) SetArg(name string, v Value) {
	c.args.Set(name, v)
}

// RegisterFilter adds a host filter under name at the given arity. It
// must be called before Init.
func (c *Context) RegisterFilter(name string, arity int, handlesUnknown bool, fn FilterFunc) error {
	return c.filters.Register(name, arity, handlesUnknown, fn)
}

// RegisterPageFormat associates a file extension with a body
// transform, e.g. registering "md" with a Markdown renderer.
func (c *Context) RegisterPageFormat(ext string, transform func(string) (string, error)) error {
	if c.initialized {
		return &TemplateParseError{Message: "cannot register page format after Init"}
	}
	c.pageFormats[ext] = PageFormat{Extension: ext, Transform: transform}
	return nil
}

// Init registers the default filter library and freezes the filter
// registry (spec §5: "the registry is frozen after Init; registering
// afterward is a programming error"). Failures registering the default
// library, such as a name and arity already taken by a host filter
// added earlier, are aggregated into a single error.
func (c *Context) Init() error {
	if c.initialized {
		return nil
	}
	if err := registerBuiltins(c.filters, c); err != nil {
		return err
	}
	c.filters.freeze()
	c.initialized = true
	return nil
}

// logf logs a warning tagged with renderID (a PageResult.RenderID) so a
// host aggregating logs from concurrent renders can correlate a line
// back to the render that produced it.
func (c *Context) logf(renderID string, format string, args ...interface{}) {
	c.logger.Warn(fmt.Sprintf(format, args...), slog.String("render_id", renderID))
}

// GetPage loads and compiles the named page. In Production mode a
// previously compiled page is served from cache; concurrent first
// loads of the same name are collapsed with singleflight so a stampede
// of requests for a cold page parses it once. In Development mode the
// page is always recompiled, matching go-goods-tmpl's Development/
// Production split in template.go's treeFor.
func (c *Context) GetPage(name string) (*Page, error) {
	if c.config.Mode == Production {
		c.cacheMu.RLock()
		if p, ok := c.cache[name]; ok {
			c.cacheMu.RUnlock()
			return p, nil
		}
		c.cacheMu.RUnlock()
	}

	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		return c.loadPage(name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Page), nil
}

func (c *Context) loadPage(name string) (*Page, error) {
	if !c.fs.Exists(name) {
		return nil, &PageNotFoundError{Name: name}
	}
	src, err := c.fs.Read(name)
	if err != nil {
		return nil, err
	}
	format := pageFormatForName(name, c.pageFormats)
	p, err := compilePage(name, src, format)
	if err != nil {
		return nil, err
	}
	p.FileBacked = true
	if mt, err := c.fs.LastModified(name); err == nil {
		p.modTime = mt
	}

	if c.config.Mode == Production {
		c.cacheMu.Lock()
		c.cache[name] = p
		c.cacheMu.Unlock()
	}
	return p, nil
}

// OneTimePage compiles source directly, without consulting or
// populating the page cache. Used for ad hoc fragments (e.g. an email
// body assembled at request time) that never live in the file system.
func (c *Context) OneTimePage(name string, source string) (*Page, error) {
	format := pageFormatForName(name, c.pageFormats)
	return compilePage(name, source, format)
}

// findLayout walks upward from the page's directory looking for
// "_layout.<ext>", the nearest-ancestor convention spec §6 describes.
// It returns nil, nil when no layout exists anywhere up to the root.
func (c *Context) findLayout(pageName string, ext string) (*Page, error) {
	dir := path.Dir(pageName)
	for {
		candidate := path.Join(dir, "_layout."+ext)
		if c.fs.Exists(candidate) {
			return c.GetPage(candidate)
		}
		if dir == "." || dir == "/" {
			return nil, nil
		}
		dir = path.Dir(dir)
	}
}

// Render composes a PageResult against its page, resolved layout (if
// any), and partials, producing the final output string. It is the
// single entry point Component F (the composer) exposes.
func (c *Context) Render(pr *PageResult) (string, error) {
	return c.compose(pr)
}
