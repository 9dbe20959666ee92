package tmplx

import (
	"errors"
	"testing"
	"time"
)

// noFS is a vfs.FileSystem that has no files, so layout lookups always
// report "not found" without touching the real file system.
type noFS struct{}

func (noFS) Exists(path string) bool                        { return false }
func (noFS) Read(path string) (string, error)                { return "", errors.New("no such file") }
func (noFS) LastModified(path string) (time.Time, error)      { return time.Time{}, errors.New("no such file") }
func (noFS) Write(path string, contents string) error        { return nil }

func newComposerTestEngine(t *testing.T) *Context {
	t.Helper()
	c := New(noFS{}, Config{DefaultCulture: "en-US"})
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c
}

func TestComposeSimplePageNoLayout(t *testing.T) {
	c := newComposerTestEngine(t)
	page, err := c.OneTimePage("home.html", "Hello, {{ Name }}!")
	if err != nil {
		t.Fatal(err)
	}
	pr := NewPageResult(page).WithModel(Map(map[string]Value{"Name": String("Ada")}))

	out, err := c.Render(pr)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hello, Ada!" {
		t.Fatalf("got %q", out)
	}
}

func TestComposeEscapesUntrustedValues(t *testing.T) {
	c := newComposerTestEngine(t)
	page, err := c.OneTimePage("home.html", "{{ Body }}")
	if err != nil {
		t.Fatal(err)
	}
	pr := NewPageResult(page).WithModel(Map(map[string]Value{"Body": String("<script>")}))

	out, err := c.Render(pr)
	if err != nil {
		t.Fatal(err)
	}
	if out != "&lt;script&gt;" {
		t.Fatalf("got %q", out)
	}
}

func TestComposeRawFilterBypassesEscaping(t *testing.T) {
	c := newComposerTestEngine(t)
	page, err := c.OneTimePage("home.html", "{{ Body | raw }}")
	if err != nil {
		t.Fatal(err)
	}
	pr := NewPageResult(page).WithModel(Map(map[string]Value{"Body": String("<b>x</b>")}))

	out, err := c.Render(pr)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<b>x</b>" {
		t.Fatalf("got %q", out)
	}
}

func TestComposeWithExplicitLayout(t *testing.T) {
	c := newComposerTestEngine(t)
	page, err := c.OneTimePage("home.html", "body content")
	if err != nil {
		t.Fatal(err)
	}
	layout, err := c.OneTimePage("_layout.html", "<html>{{ page | raw }}</html>")
	if err != nil {
		t.Fatal(err)
	}
	pr := NewPageResult(page).WithLayout(layout)

	out, err := c.Render(pr)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<html>body content</html>" {
		t.Fatalf("got %q", out)
	}
}

func TestComposeSelfRecursionRejected(t *testing.T) {
	c := newComposerTestEngine(t)
	page, err := c.OneTimePage("loop.html", "x")
	if err != nil {
		t.Fatal(err)
	}
	pr := NewPageResult(page).WithLayout(page)

	_, err = c.Render(pr)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestComposeUnresolvedPassesThroughSource(t *testing.T) {
	c := newComposerTestEngine(t)
	page, err := c.OneTimePage("home.html", "before {{ Missing }} after")
	if err != nil {
		t.Fatal(err)
	}
	pr := NewPageResult(page)

	out, err := c.Render(pr)
	if err != nil {
		t.Fatal(err)
	}
	if out != "before {{ Missing }} after" {
		t.Fatalf("got %q", out)
	}
}
