package views

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemplateNotFound matches every NotFoundError.
	ErrTemplateNotFound = errors.New("views: template not found")
	// ErrInvalidName reports a logical name that cannot be resolved safely.
	ErrInvalidName = errors.New("views: invalid template name")
	// ErrUnknownNamespace reports an "@Name/..." reference to an unregistered
	// namespace.
	ErrUnknownNamespace = errors.New("views: unknown namespace")
	// ErrNotDirectory reports a search path that is missing or not a
	// directory.
	ErrNotDirectory = errors.New("views: search path is not a directory")
)

// NotFoundError describes a failed lookup and the paths that were tried.
type NotFoundError struct {
	Name      string
	Namespace string
	Tried     []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "views: unable to find template %q", e.Name)
	if len(e.Tried) > 0 {
		fmt.Fprintf(&b, " (looked into: %s)", strings.Join(e.Tried, ", "))
	}
	return b.String()
}

// Is lets errors.Is match ErrTemplateNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// FragmentWalkError wraps a filesystem failure met while scanning a plugin
// extension directory. It aborts the whole collection.
type FragmentWalkError struct {
	Plugin string
	Path   string
	Err    error
}

func (e *FragmentWalkError) Error() string {
	return fmt.Sprintf("views: scan fragments of plugin %q at %s: %v", e.Plugin, e.Path, e.Err)
}

func (e *FragmentWalkError) Unwrap() error {
	return e.Err
}
