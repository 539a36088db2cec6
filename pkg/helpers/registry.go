package helpers

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Helper is a named function callable from templates as name(args...).
type Helper struct {
	Name string
	Func any
}

// Registry stores helpers by name. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	helpers map[string]Helper
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		helpers: make(map[string]Helper),
	}
}

// Register adds a helper. Duplicate names return an error.
func (r *Registry) Register(h Helper) error {
	h, err := validate(h)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.helpers[h.Name]; exists {
		return fmt.Errorf("helpers: helper %q already registered", h.Name)
	}
	r.helpers[h.Name] = h
	return nil
}

// Set adds or replaces a helper. Functions added by applications use Set so
// they can shadow a built-in.
func (r *Registry) Set(h Helper) error {
	h, err := validate(h)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.helpers[h.Name] = h
	return nil
}

// Get retrieves a helper by name.
func (r *Registry) Get(name string) (Helper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.helpers[name]
	if !ok {
		return Helper{}, fmt.Errorf("helpers: helper %q not found", name)
	}
	return h, nil
}

// List returns a sorted list of helper names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a helper is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.helpers[name]
	return ok
}

// Funcs returns name → function, ready for an engine's function table.
func (r *Registry) Funcs() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]any, len(r.helpers))
	for name, h := range r.helpers {
		out[name] = h.Func
	}
	return out
}

func validate(h Helper) (Helper, error) {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return h, fmt.Errorf("helpers: helper name is required")
	}
	if h.Func == nil || reflect.TypeOf(h.Func).Kind() != reflect.Func {
		return h, fmt.Errorf("helpers: helper %q: %T is not a function", h.Name, h.Func)
	}
	return h, nil
}
