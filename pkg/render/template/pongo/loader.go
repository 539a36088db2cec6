package pongo

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/abdedarghal111/facturascripts/pkg/views"
)

// ResolverLoader serves pongo2 template lookups from a views.Resolver, so
// "@Namespace/file" names and override precedence apply to render calls,
// includes and extends alike.
//
// pongo2 replaces loader errors with a generic message, so the loader keeps
// the last resolver failure per name for the engine to report.
type ResolverLoader struct {
	resolver *views.Resolver

	mu       sync.Mutex
	failures map[string]error
	last     error
}

var _ pongo2.TemplateLoader = (*ResolverLoader)(nil)

// NewResolverLoader wraps r.
func NewResolverLoader(r *views.Resolver) *ResolverLoader {
	return &ResolverLoader{resolver: r, failures: make(map[string]error)}
}

// Abs keeps names logical; they are never relative to the including template.
func (l *ResolverLoader) Abs(_, name string) string {
	return name
}

// Get resolves name and returns the file contents.
func (l *ResolverLoader) Get(name string) (io.Reader, error) {
	if l == nil || l.resolver == nil {
		return nil, fmt.Errorf("pongo: loader has no resolver")
	}
	path, err := l.resolver.Resolve(name)
	if err != nil {
		l.record(name, err)
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("pongo: read %s: %w", path, err)
		l.record(name, err)
		return nil, err
	}
	l.record(name, nil)
	return bytes.NewReader(data), nil
}

// Failure returns the error of the latest lookup of name, or nil. An empty
// name returns the latest failure of any lookup.
func (l *ResolverLoader) Failure(name string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if name == "" {
		return l.last
	}
	return l.failures[name]
}

func (l *ResolverLoader) record(name string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures == nil {
		l.failures = make(map[string]error)
	}
	if err == nil {
		delete(l.failures, name)
		return
	}
	l.failures[name] = err
	l.last = err
}
