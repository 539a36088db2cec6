package views

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// MainNamespace keys the unnamed search path used by bare template names.
const MainNamespace = "__main__"

// Resolver maps logical template names to files across named search paths.
// A Resolver is built per render and is not safe for concurrent mutation.
type Resolver struct {
	namespaces map[string][]string
	order      []string
}

// NewResolver returns a resolver whose main namespace searches mainPaths in
// order.
func NewResolver(mainPaths ...string) (*Resolver, error) {
	r := &Resolver{namespaces: make(map[string][]string)}
	for _, dir := range mainPaths {
		if err := r.RegisterPath(MainNamespace, dir); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterPath appends dir to the search list of the named namespace. An
// empty name targets the main namespace.
func (r *Resolver) RegisterPath(name, dir string) error {
	name = normalizeNamespace(name)
	dir, err := checkDir(dir)
	if err != nil {
		return err
	}
	if _, ok := r.namespaces[name]; !ok {
		r.order = append(r.order, name)
	}
	r.namespaces[name] = append(r.namespaces[name], dir)
	return nil
}

// PrependPath puts dir first in the main namespace search list.
func (r *Resolver) PrependPath(dir string) error {
	dir, err := checkDir(dir)
	if err != nil {
		return err
	}
	if _, ok := r.namespaces[MainNamespace]; !ok {
		r.order = append([]string{MainNamespace}, r.order...)
	}
	r.namespaces[MainNamespace] = append([]string{dir}, r.namespaces[MainNamespace]...)
	return nil
}

// Namespaces lists registered namespace names in registration order.
func (r *Resolver) Namespaces() []string {
	return append([]string(nil), r.order...)
}

// Paths returns the search directories of a namespace in priority order.
func (r *Resolver) Paths(namespace string) []string {
	return append([]string(nil), r.namespaces[normalizeNamespace(namespace)]...)
}

// Resolve returns the physical file answering to name. Names of the form
// "@Namespace/rel" search that namespace; anything else searches the main
// namespace. The first directory holding a regular file wins.
func (r *Resolver) Resolve(name string) (string, error) {
	namespace, rel, err := ParseName(name)
	if err != nil {
		return "", err
	}

	dirs, ok := r.namespaces[namespace]
	if !ok {
		if namespace == MainNamespace {
			return "", &NotFoundError{Name: name, Namespace: namespace}
		}
		return "", fmt.Errorf("%w %q for template %q", ErrUnknownNamespace, namespace, name)
	}

	tried := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		candidate := filepath.Join(dir, filepath.FromSlash(rel))
		info, statErr := os.Stat(candidate)
		if statErr == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		tried = append(tried, dir)
	}
	return "", &NotFoundError{Name: name, Namespace: namespace, Tried: tried}
}

// Exists reports whether name resolves to a file.
func (r *Resolver) Exists(name string) bool {
	_, err := r.Resolve(name)
	return err == nil
}

// List returns every template name reachable through a namespace, with the
// given suffix, in lexical order. Names shadowed by an earlier directory are
// listed once. Names are returned in the form callers pass to Resolve.
func (r *Resolver) List(namespace, suffix string) ([]string, error) {
	namespace = normalizeNamespace(namespace)
	seen := make(map[string]struct{})
	for _, dir := range r.namespaces[namespace] {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
				return nil
			}
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if namespace != MainNamespace {
				rel = "@" + namespace + "/" + rel
			}
			seen[rel] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("views: list %s: %w", dir, err)
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// ParseName splits a logical name into namespace and relative path.
func ParseName(name string) (namespace, rel string, err error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if name == "" {
		return "", "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}

	namespace = MainNamespace
	if strings.HasPrefix(name, "@") {
		slash := strings.Index(name, "/")
		if slash < 2 {
			return "", "", fmt.Errorf("%w: malformed namespaced name %q", ErrInvalidName, name)
		}
		namespace = name[1:slash]
		name = name[slash+1:]
	}

	if escapes(name) {
		return "", "", fmt.Errorf("%w: %q leaves the search paths", ErrInvalidName, name)
	}
	rel = strings.TrimPrefix(path.Clean("/"+name), "/")
	if rel == "" || rel == "." {
		return "", "", fmt.Errorf("%w: %q has no file part", ErrInvalidName, name)
	}
	return namespace, rel, nil
}

func escapes(name string) bool {
	depth := 0
	for _, part := range strings.Split(name, "/") {
		switch part {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return true
			}
		default:
			depth++
		}
	}
	return false
}

func normalizeNamespace(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	if name == "" {
		return MainNamespace
	}
	return name
}

func checkDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotDirectory)
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", ErrNotDirectory, dir)
		}
		return "", fmt.Errorf("views: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return filepath.Clean(dir), nil
}

// dirExists reports whether dir is an existing directory. Absence is not an
// error; a path that exists but is not a directory wraps ErrNotDirectory.
func dirExists(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return true, nil
}
