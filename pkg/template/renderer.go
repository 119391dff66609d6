package template

import (
	"io"
)

// TemplateRenderer is the contract the notification manager relies on. It
// mirrors the github.com/goliatone/go-template engine surface.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	GlobalContext(data any) error
}
