package template

import (
	"io"
)

// TemplateRenderer is the engine seam the html renderer builds each render
// on. Templates are addressed by logical name; data is merged over the
// global context.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	GlobalContext(data any) error
}
