package template

import (
	"errors"
	"fmt"
)

// ErrorKind classifies render failures.
type ErrorKind int

const (
	KindLoad ErrorKind = iota + 1
	KindSyntax
	KindRuntime
)

func (k ErrorKind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindSyntax:
		return "syntax"
	case KindRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Error is returned by engines for any failed render.
type Error struct {
	Kind     ErrorKind
	Template string
	Err      error
	// Cause is the innermost failure when Err comes from an engine whose
	// error type does not unwrap.
	Cause error
}

func (e *Error) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("template: %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("template: %s error in %q: %v", e.Kind, e.Template, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// KindOf returns the kind of a render error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
