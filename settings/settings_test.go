package settings

import (
	"os"
	"testing"
)

func TestMapProvider(t *testing.T) {
	p := MapProvider{"siteName": "Acme"}
	v, ok := p.Get("siteName")
	if !ok || v != "Acme" {
		t.Fatalf("got %q, %v", v, ok)
	}
	if _, ok := p.Get("missing"); ok {
		t.Fatal("expected missing key to report false")
	}
}

func TestEnvProvider(t *testing.T) {
	os.Setenv("TMPLX_TEST_SETTING", "value")
	defer os.Unsetenv("TMPLX_TEST_SETTING")

	v, ok := EnvProvider{}.Get("TMPLX_TEST_SETTING")
	if !ok || v != "value" {
		t.Fatalf("got %q, %v", v, ok)
	}
}

func TestChainFallsThrough(t *testing.T) {
	c := Chain{MapProvider{}, MapProvider{"key": "fallback"}}
	v, ok := c.Get("key")
	if !ok || v != "fallback" {
		t.Fatalf("got %q, %v", v, ok)
	}
}
