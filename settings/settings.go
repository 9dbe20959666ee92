// Package settings implements the settings provider contract spec §6
// requires for the appSetting filter: a flat string key/value lookup.
// No configuration library in the retrieval pack targets this simple a
// shape without also pulling in a file format the spec never asks for,
// so the default implementations here are plain stdlib-backed maps and
// environment lookups.
package settings

import "os"

// Provider looks up a setting by key, reporting whether it exists.
type Provider interface {
	Get(key string) (string, bool)
}

// MapProvider is a Provider backed by an in-memory map, typically
// populated from a page's front matter or a host's own config file
// after that file has already been parsed.
type MapProvider map[string]string

func (m MapProvider) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// EnvProvider is a Provider backed by OS environment variables.
type EnvProvider struct{}

func (EnvProvider) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Chain tries each Provider in order, returning the first hit.
type Chain []Provider

func (c Chain) Get(key string) (string, bool) {
	for _, p := range c {
		if v, ok := p.Get(key); ok {
			return v, true
		}
	}
	return "", false
}
