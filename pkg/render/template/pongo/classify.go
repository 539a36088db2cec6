package pongo

import (
	"errors"

	"github.com/flosch/pongo2/v6"

	"github.com/abdedarghal111/facturascripts/pkg/render/template"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

// pongo2 reports loader failures from FromFile with this sender.
const senderFromFile = "fromfile"

func (e *Engine) classifyParse(name string, err error) error {
	if cause := e.loadCause(err); cause != nil {
		return &template.Error{Kind: template.KindLoad, Template: name, Err: err, Cause: cause}
	}
	return &template.Error{Kind: template.KindSyntax, Template: name, Err: err}
}

func (e *Engine) classifyExecute(name string, err error) error {
	if cause := e.loadCause(err); cause != nil {
		return &template.Error{Kind: template.KindLoad, Template: name, Err: err, Cause: cause}
	}
	return &template.Error{Kind: template.KindRuntime, Template: name, Err: err}
}

// loadCause walks pongo2 error wrapping, which does not implement Unwrap,
// and returns the loader failure behind err if there is one. pongo2 drops
// the loader's own error, so it is recovered from the resolver loaders.
func (e *Engine) loadCause(err error) error {
	var fromFile *pongo2.Error
	for depth := 0; err != nil && depth < 16; depth++ {
		if errors.Is(err, views.ErrTemplateNotFound) ||
			errors.Is(err, views.ErrInvalidName) ||
			errors.Is(err, views.ErrUnknownNamespace) {
			return err
		}
		var pe *pongo2.Error
		if !errors.As(err, &pe) {
			break
		}
		if pe.Sender == senderFromFile && fromFile == nil {
			fromFile = pe
		}
		if pe.OrigError == nil || pe.OrigError == err {
			break
		}
		err = pe.OrigError
	}
	if fromFile == nil {
		return nil
	}
	if failure := e.loaderFailure(fromFile.Filename); failure != nil {
		return failure
	}
	return fromFile
}

func (e *Engine) loaderFailure(name string) error {
	for _, l := range e.resolvers {
		if failure := l.Failure(name); failure != nil {
			return failure
		}
	}
	for _, l := range e.resolvers {
		if failure := l.Failure(""); failure != nil {
			return failure
		}
	}
	return nil
}
